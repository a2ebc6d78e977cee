package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog if DB is empty (categories/products/variants/stock)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure settings row and staff users exist (idempotent; safe to run every start)
	if err := seedSettings(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  image_url TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

-- Variants (one per color) and per-size stock for apparel
CREATE TABLE IF NOT EXISTS product_variants(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  color_name TEXT,
  image_url TEXT,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)
);
CREATE INDEX IF NOT EXISTS idx_variants_product ON product_variants(product_id);

CREATE TABLE IF NOT EXISTS product_stock(
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL REFERENCES product_variants(id) ON DELETE CASCADE,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  UNIQUE(variant_id, size)
);

-- Coupons (codes stored uppercase; lookup is case-insensitive)
CREATE TABLE IF NOT EXISTS coupons(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  discount_type TEXT NOT NULL CHECK (discount_type IN ('percentage','fixed')),
  discount_value NUMERIC NOT NULL CHECK (discount_value >= 0),
  min_purchase NUMERIC NOT NULL DEFAULT 0,
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  expires_at TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code_nocase ON coupons(UPPER(code));

-- Customers (saved delivery profile, keyed by email)
CREATE TABLE IF NOT EXISTS customers(
  id TEXT PRIMARY KEY,
  user_id TEXT,
  email TEXT NOT NULL UNIQUE,
  name TEXT,
  zip_code TEXT,
  street TEXT,
  number TEXT,
  complement TEXT,
  neighborhood TEXT,
  city TEXT,
  state TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_email TEXT NOT NULL,
  customer_name TEXT,
  customer_address TEXT,
  subtotal NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  coupon_code TEXT,
  shipping_method TEXT,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_id TEXT,
  payment_method TEXT,
  installments INTEGER,
  installment_amount NUMERIC,
  tracking_code TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_email      ON orders(customer_email);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  size TEXT,
  product_name TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

-- Abandoned carts (recovery markers, keyed by shopper email)
CREATE TABLE IF NOT EXISTS abandoned_carts(
  email TEXT PRIMARY KEY,
  items_json TEXT NOT NULL,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'abandoned',
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Session carts
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  variant_id TEXT NOT NULL DEFAULT '',
  size       TEXT NOT NULL DEFAULT '',
  name  TEXT NOT NULL,
  color TEXT,
  image_url TEXT,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price NUMERIC NOT NULL,
  created_at TEXT,
  updated_at TEXT,
  PRIMARY KEY (cart_id, product_id, variant_id, size)
);

-- Store-wide settings (single row)
CREATE TABLE IF NOT EXISTS store_settings(
  id INTEGER PRIMARY KEY CHECK (id = 1),
  store_name TEXT NOT NULL DEFAULT 'Vitrine',
  maintenance_mode INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products/variants/stock")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('sneakers','Sneakers'),
	  ('streetwear','Streetwear'),
	  ('accessories','Accessories')`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,price,image_url) VALUES
	  ('tn-nova','sneakers','Tênis Nova Runner','Lightweight retro runner',299.90,'products/tn-nova/main.jpg'),
	  ('cam-neon','streetwear','Camiseta Neon Oversized','Heavyweight cotton tee',89.90,'products/cam-neon/main.jpg'),
	  ('bone-vtr','accessories','Boné Vitrine Classic','Six-panel cap',59.90,'products/bone-vtr/main.jpg')`)

	tx.MustExec(`INSERT INTO product_variants(id,product_id,color_name,image_url,stock) VALUES
	  ('tn-nova-blk','tn-nova','Preto','products/tn-nova/blk.jpg',12),
	  ('tn-nova-wht','tn-nova','Branco','products/tn-nova/wht.jpg',5),
	  ('cam-neon-grn','cam-neon','Verde','products/cam-neon/grn.jpg',30),
	  ('bone-vtr-blk','bone-vtr','Preto','products/bone-vtr/blk.jpg',18)`)

	tx.MustExec(`INSERT INTO product_stock(id,variant_id,size,quantity) VALUES
	  ('tn-nova-blk-40','tn-nova-blk','40',4),
	  ('tn-nova-blk-42','tn-nova-blk','42',6),
	  ('tn-nova-blk-44','tn-nova-blk','44',2),
	  ('tn-nova-wht-42','tn-nova-wht','42',5),
	  ('cam-neon-grn-m','cam-neon-grn','M',15),
	  ('cam-neon-grn-g','cam-neon-grn','G',15)`)

	tx.MustExec(`INSERT INTO coupons(id,code,discount_type,discount_value,min_purchase) VALUES
	  ('c-promo10','PROMO10','percentage',10,0),
	  ('c-frete25','FRETE25','fixed',25,150)`)

	return tx.Commit()
}

// seedSettings ensures the single settings row exists (idempotent).
func seedSettings(db *sqlx.DB) error {
	_, err := db.Exec(`
		INSERT INTO store_settings(id, store_name, maintenance_mode, updated_at)
		SELECT 1, 'Vitrine', 0, CURRENT_TIMESTAMP
		WHERE NOT EXISTS (SELECT 1 FROM store_settings WHERE id=1)
	`)
	return err
}

// seedUsers ensures one ADMIN and one demo USER exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-demo", "cliente@vitrine.test", "Cliente Demo", "USER", "Passw0rd!"),
		mk("u-admin", "admin@vitrine.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
