package database

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and makes sure the schema exists.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users(
  id UUID PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('seller','staff','admin')),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products(
  id UUID PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  condition TEXT,
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
  status TEXT NOT NULL CHECK (status IN
    ('inbound','inspection','storage','listing','sold','processing','shipped','delivered','cancelled')),
  seller_id UUID REFERENCES users(id),
  current_location TEXT,
  metadata TEXT,
  inspected_at TIMESTAMPTZ,
  inspected_by TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);
CREATE INDEX IF NOT EXISTS idx_products_seller ON products(seller_id);

CREATE TABLE IF NOT EXISTS inspection_checklists(
  id UUID PRIMARY KEY,
  product_id UUID NOT NULL UNIQUE REFERENCES products(id),
  category TEXT NOT NULL,
  responses TEXT NOT NULL,
  outcome TEXT NOT NULL CHECK (outcome IN ('pass','needs_review','fail')),
  notes TEXT,
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','cancelled')),
  verified_at TIMESTAMPTZ,
  verified_by TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS delivery_plans(
  id UUID PRIMARY KEY,
  seller_id UUID NOT NULL REFERENCES users(id),
  status TEXT NOT NULL DEFAULT 'submitted' CHECK (status IN ('draft','submitted','received','cancelled')),
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS delivery_plan_products(
  id UUID PRIMARY KEY,
  plan_id UUID NOT NULL REFERENCES delivery_plans(id),
  declared_name TEXT NOT NULL,
  declared_category TEXT NOT NULL,
  declared_condition TEXT,
  estimated_value NUMERIC NOT NULL DEFAULT 0,
  product_id UUID REFERENCES products(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_plan_products_plan ON delivery_plan_products(plan_id);

CREATE TABLE IF NOT EXISTS orders(
  id UUID PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  buyer_id UUID NOT NULL REFERENCES users(id),
  destination TEXT NOT NULL,
  destination_hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN
    ('pending','confirmed','processing','completed','cancelled')),
  total NUMERIC NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id, destination_hash);

CREATE TABLE IF NOT EXISTS order_items(
  id UUID PRIMARY KEY,
  order_id UUID NOT NULL REFERENCES orders(id),
  product_id UUID NOT NULL REFERENCES products(id),
  sku TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);

CREATE TABLE IF NOT EXISTS shipments(
  id UUID PRIMARY KEY,
  order_id UUID NOT NULL REFERENCES orders(id),
  product_id UUID NOT NULL REFERENCES products(id),
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN
    ('pending','picked','packed','ready_for_pickup','shipped','delivered','cancelled')),
  carrier TEXT,
  tracking_number TEXT,
  priority TEXT NOT NULL DEFAULT 'normal',
  customer_name TEXT,
  address TEXT,
  location TEXT,
  bundle_id TEXT,
  notes TEXT,
  deadline TIMESTAMPTZ,
  picked_at TIMESTAMPTZ,
  packed_at TIMESTAMPTZ,
  shipped_at TIMESTAMPTZ,
  delivered_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
-- one active shipment per physical item
CREATE UNIQUE INDEX IF NOT EXISTS idx_shipments_active_product
  ON shipments(product_id) WHERE status <> 'cancelled';
CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status);
CREATE INDEX IF NOT EXISTS idx_shipments_bundle ON shipments(bundle_id);

CREATE TABLE IF NOT EXISTS activities(
  id UUID PRIMARY KEY,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  user_id TEXT,
  product_id UUID,
  order_id UUID,
  metadata TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_activities_product ON activities(product_id, created_at);
CREATE INDEX IF NOT EXISTS idx_activities_order ON activities(order_id, created_at);
`
	_, err := db.Exec(schema)
	return err
}
