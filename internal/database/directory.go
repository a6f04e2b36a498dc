package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vestry/internal/models"
)

// Member directory, contributions and attendance share the same store as the
// tasks but never participate in remote sync; they are local-only records.

func (db *DB) GetAllMembers(ctx context.Context) ([]models.Member, error) {
	query := `SELECT id, first_name, last_name, email, phone, address, membership, joined_at, created_at, updated_at
              FROM members ORDER BY last_name, first_name`

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (db *DB) GetMember(ctx context.Context, id string) (*models.Member, error) {
	query := `SELECT id, first_name, last_name, email, phone, address, membership, joined_at, created_at, updated_at
              FROM members WHERE id = ?`

	member, err := scanMember(db.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read member %s: %w", id, err)
	}
	return &member, nil
}

func (db *DB) SaveMember(ctx context.Context, member models.Member) error {
	query := `
        INSERT INTO members (id, first_name, last_name, email, phone, address, membership, joined_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            email = excluded.email,
            phone = excluded.phone,
            address = excluded.address,
            membership = excluded.membership,
            joined_at = excluded.joined_at,
            updated_at = excluded.updated_at
    `

	_, err := db.db.ExecContext(ctx, query,
		member.ID,
		member.FirstName,
		member.LastName,
		member.Email,
		member.Phone,
		member.Address,
		member.Membership,
		member.JoinedAt,
		timeToDB(member.CreatedAt),
		timeToDB(member.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save member %s: %w", member.ID, err)
	}
	return nil
}

func (db *DB) DeleteMember(ctx context.Context, id string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member %s: %w", id, err)
	}
	return nil
}

// GetContributions returns contributions within [from, to] calendar dates.
// Empty bounds mean unbounded.
func (db *DB) GetContributions(ctx context.Context, from, to string) ([]models.Contribution, error) {
	query := `SELECT id, member_id, fund, amount_cents, date, method, note, created_at FROM contributions`
	var (
		conds []string
		args  []interface{}
	)
	if from != "" {
		conds = append(conds, `date >= ?`)
		args = append(args, from)
	}
	if to != "" {
		conds = append(conds, `date <= ?`)
		args = append(args, to)
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read contributions: %w", err)
	}
	defer rows.Close()

	var contributions []models.Contribution
	for rows.Next() {
		var (
			c         models.Contribution
			createdAt string
		)
		err := rows.Scan(&c.ID, &c.MemberID, &c.Fund, &c.AmountCents, &c.Date, &c.Method, &c.Note, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.CreatedAt = timeFromDB(createdAt)
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func (db *DB) SaveContribution(ctx context.Context, c models.Contribution) error {
	query := `
        INSERT INTO contributions (id, member_id, fund, amount_cents, date, method, note, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            member_id = excluded.member_id,
            fund = excluded.fund,
            amount_cents = excluded.amount_cents,
            date = excluded.date,
            method = excluded.method,
            note = excluded.note
    `

	_, err := db.db.ExecContext(ctx, query,
		c.ID, c.MemberID, c.Fund, c.AmountCents, c.Date, c.Method, c.Note, timeToDB(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save contribution %s: %w", c.ID, err)
	}
	return nil
}

func (db *DB) DeleteContribution(ctx context.Context, id string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM contributions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contribution %s: %w", id, err)
	}
	return nil
}

func (db *DB) GetAttendance(ctx context.Context, from, to string) ([]models.AttendanceRecord, error) {
	query := `SELECT id, service_date, service_type, adults, children, visitors, note, created_at FROM attendance`
	var args []interface{}
	switch {
	case from != "" && to != "":
		query += ` WHERE service_date >= ? AND service_date <= ?`
		args = append(args, from, to)
	case from != "":
		query += ` WHERE service_date >= ?`
		args = append(args, from)
	case to != "":
		query += ` WHERE service_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY service_date DESC`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance: %w", err)
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var (
			rec       models.AttendanceRecord
			createdAt string
		)
		err := rows.Scan(&rec.ID, &rec.ServiceDate, &rec.ServiceType, &rec.Adults, &rec.Children, &rec.Visitors, &rec.Note, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		rec.CreatedAt = timeFromDB(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (db *DB) SaveAttendance(ctx context.Context, rec models.AttendanceRecord) error {
	query := `
        INSERT INTO attendance (id, service_date, service_type, adults, children, visitors, note, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            service_date = excluded.service_date,
            service_type = excluded.service_type,
            adults = excluded.adults,
            children = excluded.children,
            visitors = excluded.visitors,
            note = excluded.note
    `

	_, err := db.db.ExecContext(ctx, query,
		rec.ID, rec.ServiceDate, rec.ServiceType, rec.Adults, rec.Children, rec.Visitors, rec.Note, timeToDB(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save attendance record %s: %w", rec.ID, err)
	}
	return nil
}

func scanMember(row rowScanner) (models.Member, error) {
	var (
		member    models.Member
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&member.ID,
		&member.FirstName,
		&member.LastName,
		&member.Email,
		&member.Phone,
		&member.Address,
		&member.Membership,
		&member.JoinedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Member{}, err
	}
	member.CreatedAt = timeFromDB(createdAt)
	member.UpdatedAt = timeFromDB(updatedAt)
	return member, nil
}
