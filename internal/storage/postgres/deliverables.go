package postgres

import (
	"context"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

func (r *deliverableRepository) Add(ctx context.Context, d *model.Deliverable) (*model.Deliverable, error) {
	const query = `INSERT INTO deliverables (order_id, type, file_url, file_name)
                   VALUES ($1, $2, $3, $4)
                   RETURNING id, created_at`
	created := *d
	err := r.storage.pool.QueryRow(ctx, query, d.OrderID, string(d.Type), d.FileURL, d.FileName).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &created, nil
}

func (r *deliverableRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Deliverable, error) {
	const query = `SELECT id, order_id, type, file_url, file_name, created_at
                   FROM deliverables WHERE order_id=$1 ORDER BY created_at, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Deliverable
	for rows.Next() {
		var d model.Deliverable
		if err := rows.Scan(&d.ID, &d.OrderID, &d.Type, &d.FileURL, &d.FileName, &d.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *deliverableRepository) Delete(ctx context.Context, orderID, id int64) error {
	const query = `DELETE FROM deliverables WHERE id=$1 AND order_id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, id, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
