package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/imcadom/entregas/internal/model"
)

// now is the clock used for creation and return timestamps.
var now = time.Now

const deliveryColumns = `id, created_at, equipment_name, equipment_type, imei, recipient_name,
	notes, returned_at, returned, attachment`

// InsertDelivery creates a new active delivery. attachment may be empty.
func InsertDelivery(ctx context.Context, db *sql.DB, f model.DeliveryFields, attachment string) (*model.Delivery, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO deliveries (created_at, equipment_name, equipment_type, imei, recipient_name, notes, attachment)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		now().Format(model.TimestampLayout), f.EquipmentName, f.EquipmentType,
		nullString(f.IMEI), f.RecipientName, nullString(f.Notes), nullString(attachment),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivery: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting delivery id: %w", err)
	}

	return FindDelivery(ctx, db, id)
}

// FindDelivery returns a delivery by ID, or model.ErrNotFound.
func FindDelivery(ctx context.Context, db *sql.DB, id int64) (*model.Delivery, error) {
	d, err := scanDelivery(db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delivery %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting delivery: %w", err)
	}
	return d, nil
}

// FindActive returns deliveries that have not been returned, newest first.
func FindActive(ctx context.Context, db *sql.DB, filter model.ActiveFilter) ([]model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE returned = 0`
	var args []any
	if filter.DatePrefix != "" {
		// substr instead of LIKE: '%' and '_' in the filter must not act as wildcards.
		query += ` AND substr(created_at, 1, length(?)) = ?`
		args = append(args, filter.DatePrefix, filter.DatePrefix)
	}
	query += ` ORDER BY id DESC`

	deliveries, err := queryDeliveries(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing active deliveries: %w", err)
	}

	if filter.Search == "" {
		return deliveries, nil
	}

	term := cases.Fold().String(filter.Search)
	matched := deliveries[:0]
	for _, d := range deliveries {
		if matchesSearch(&d, term) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// FindReturned returns returned deliveries, newest first.
func FindReturned(ctx context.Context, db *sql.DB) ([]model.Delivery, error) {
	deliveries, err := queryDeliveries(ctx, db,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE returned = 1 ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing returned deliveries: %w", err)
	}
	return deliveries, nil
}

// FindAll returns every delivery regardless of status, newest first.
func FindAll(ctx context.Context, db *sql.DB) ([]model.Delivery, error) {
	deliveries, err := queryDeliveries(ctx, db,
		`SELECT `+deliveryColumns+` FROM deliveries ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	return deliveries, nil
}

// UpdateDelivery overwrites the descriptive fields of a delivery. Creation date,
// return state and attachment are left as they are.
func UpdateDelivery(ctx context.Context, db *sql.DB, id int64, f model.DeliveryFields) (*model.Delivery, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE deliveries
		 SET equipment_name = ?, equipment_type = ?, imei = ?, recipient_name = ?, notes = ?
		 WHERE id = ?`,
		f.EquipmentName, f.EquipmentType, nullString(f.IMEI), f.RecipientName, nullString(f.Notes), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating delivery: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return nil, err
	}
	return FindDelivery(ctx, db, id)
}

// MarkReturned flags a delivery as returned at the current time. Calling it
// again moves the return timestamp forward.
func MarkReturned(ctx context.Context, db *sql.DB, id int64) (*model.Delivery, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE deliveries SET returned = 1, returned_at = ? WHERE id = ?`,
		now().Format(model.TimestampLayout), id,
	)
	if err != nil {
		return nil, fmt.Errorf("marking delivery returned: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return nil, err
	}
	return FindDelivery(ctx, db, id)
}

// DeleteDelivery permanently removes a delivery. The attachment file, if any,
// stays on disk.
func DeleteDelivery(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM deliveries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting delivery: %w", err)
	}
	return requireAffected(result, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row rowScanner) (*model.Delivery, error) {
	var d model.Delivery
	var createdAt string
	var imei, notes, returnedAt, attachment sql.NullString
	err := row.Scan(&d.ID, &createdAt, &d.EquipmentName, &d.EquipmentType, &imei,
		&d.RecipientName, &notes, &returnedAt, &d.Returned, &attachment)
	if err != nil {
		return nil, err
	}

	d.CreatedAt, err = time.ParseInLocation(model.TimestampLayout, createdAt, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at of delivery %d: %w", d.ID, err)
	}
	if returnedAt.Valid {
		t, err := time.ParseInLocation(model.TimestampLayout, returnedAt.String, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parsing returned_at of delivery %d: %w", d.ID, err)
		}
		d.ReturnedAt = &t
	}
	d.IMEI = imei.String
	d.Notes = notes.String
	d.Attachment = attachment.String
	return &d, nil
}

func queryDeliveries(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Delivery, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []model.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning delivery: %w", err)
		}
		deliveries = append(deliveries, *d)
	}
	return deliveries, rows.Err()
}

func matchesSearch(d *model.Delivery, folded string) bool {
	for _, field := range []string{d.EquipmentName, d.EquipmentType, d.RecipientName, d.IMEI} {
		if strings.Contains(cases.Fold().String(field), folded) {
			return true
		}
	}
	return false
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delivery %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
