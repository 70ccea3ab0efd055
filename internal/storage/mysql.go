package storage

import (
	"database/sql"
	"fmt"

	"ticket-bot/internal/config"
	"ticket-bot/internal/logger"
	"ticket-bot/internal/models"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &MySQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established and tables initialized")
	return store, nil
}

func (s *MySQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating events and payments tables if not exist")

	events := `
    CREATE TABLE IF NOT EXISTS events (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        title VARCHAR(255) NOT NULL,
        description TEXT,
        price BIGINT NOT NULL,
        image_path VARCHAR(255),
        start_location VARCHAR(255),
        end_location VARCHAR(255),
        transfer_price BIGINT,
        transfer_time DATETIME,
        date DATETIME NOT NULL,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        INDEX idx_active (active)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
    `

	payments := `
    CREATE TABLE IF NOT EXISTS payments (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        event_id BIGINT NOT NULL,
        user_id BIGINT NOT NULL,
        amount BIGINT NOT NULL,
        timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        is_transfer BOOLEAN NOT NULL DEFAULT FALSE,
        transfer_start_location VARCHAR(255),
        time DATETIME NOT NULL,
        quantity INT NOT NULL,
        INDEX idx_user_id (user_id),
        INDEX idx_event_id (event_id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
    `

	if _, err := s.db.Exec(events); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	if _, err := s.db.Exec(payments); err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", "Events and payments tables ready")
	return nil
}

func (s *MySQLStore) SaveEvent(event *models.Event) (int64, error) {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving event %q", event.Title))

	query := `
    INSERT INTO events (
        title, description, price, image_path, start_location, end_location,
        transfer_price, transfer_time, date, active
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := s.db.Exec(query,
		event.Title, event.Description, event.Price, event.ImagePath,
		event.StartLocation, event.EndLocation,
		event.TransferPrice, event.TransferTime, event.Date, event.Active,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save event %q: %s", event.Title, err.Error()))
		return 0, fmt.Errorf("failed to save event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get event id: %w", err)
	}
	event.ID = id

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Event %d saved successfully", id))
	return id, nil
}

func (s *MySQLStore) DeactivateEvent(id int64) error {
	s.log.LogDatabase("UPDATE", "mysql", fmt.Sprintf("Deactivating event %d", id))

	query := `UPDATE events SET active = FALSE WHERE id = ?`

	if _, err := s.db.Exec(query, id); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to deactivate event %d: %s", id, err.Error()))
		return fmt.Errorf("failed to deactivate event: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Event %d deactivated", id))
	return nil
}

const eventColumns = `
    id, title, description, price, image_path, start_location, end_location,
    transfer_price, transfer_time, date, active
`

func (s *MySQLStore) scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	event := &models.Event{}
	var imagePath sql.NullString
	err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.Price, &imagePath,
		&event.StartLocation, &event.EndLocation,
		&event.TransferPrice, &event.TransferTime, &event.Date, &event.Active,
	)
	if err != nil {
		return nil, err
	}
	event.ImagePath = imagePath.String
	return event, nil
}

func (s *MySQLStore) ListActiveEvents() ([]*models.Event, error) {
	s.log.LogDatabase("SELECT", "mysql", "Listing active events")

	query := `SELECT ` + eventColumns + ` FROM events WHERE active = TRUE ORDER BY id`

	rows, err := s.db.Query(query)
	if err != nil {
		s.log.Error("DATABASE", "Failed to list events: "+err.Error())
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := s.scanEvent(rows)
		if err != nil {
			s.log.Error("DATABASE", "Failed to scan event row: "+err.Error())
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Listed %d active events", len(events)))
	return events, nil
}

func (s *MySQLStore) GetActiveEvent(id int64) (*models.Event, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Fetching active event %d", id))

	query := `SELECT ` + eventColumns + ` FROM events WHERE active = TRUE AND id = ?`

	event, err := s.scanEvent(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "mysql", fmt.Sprintf("Active event %d not found", id))
			return nil, ErrEventNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get event %d: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (s *MySQLStore) GetEvent(id int64) (*models.Event, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Fetching event %d", id))

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	event, err := s.scanEvent(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "mysql", fmt.Sprintf("Event %d not found", id))
			return nil, ErrEventNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get event %d: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (s *MySQLStore) SavePayment(payment *models.Payment) (int64, error) {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving payment for event %d by user %d", payment.EventID, payment.UserID))

	query := `
    INSERT INTO payments (
        event_id, user_id, amount, is_transfer, transfer_start_location, time, quantity
    ) VALUES (?, ?, ?, ?, ?, ?, ?)
    `

	res, err := s.db.Exec(query,
		payment.EventID, payment.UserID, payment.Amount, payment.IsTransfer,
		payment.TransferStartLocation, payment.Time, payment.Quantity,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment for event %d: %s", payment.EventID, err.Error()))
		return 0, fmt.Errorf("failed to save payment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get payment id: %w", err)
	}
	payment.ID = id

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Payment %d saved successfully", id))
	return id, nil
}

func (s *MySQLStore) ListUserPayments(userID int64) ([]*models.UserPayment, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Listing payments for user %d", userID))

	query := `
    SELECT events.title, payments.id, payments.event_id, payments.user_id,
           payments.amount, payments.timestamp, payments.is_transfer,
           payments.transfer_start_location, payments.time, payments.quantity
    FROM payments
    JOIN events ON payments.event_id = events.id
    WHERE payments.user_id = ?
    ORDER BY payments.id
    `

	rows, err := s.db.Query(query, userID)
	if err != nil {
		s.log.Error("DATABASE", "Failed to list payments: "+err.Error())
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.UserPayment
	for rows.Next() {
		p := &models.UserPayment{}
		err := rows.Scan(
			&p.EventTitle, &p.ID, &p.EventID, &p.UserID, &p.Amount, &p.Timestamp,
			&p.IsTransfer, &p.TransferStartLocation, &p.Time, &p.Quantity,
		)
		if err != nil {
			s.log.Error("DATABASE", "Failed to scan payment row: "+err.Error())
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Listed %d payments for user %d", len(payments), userID))
	return payments, nil
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}
