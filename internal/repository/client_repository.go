package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rpattn/crmimport/internal/db"
	"github.com/rpattn/crmimport/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type clientRepository struct {
	conn *db.Connection
}

// NewClientRepository wires a repository backed by the shared connection.
// It takes the connection rather than the bare pool because import
// commits run inside a transaction.
func NewClientRepository(conn *db.Connection) ClientRepository {
	return &clientRepository{conn: conn}
}

var nonDigitPattern = regexp.MustCompile(`[^0-9]`)

const clientColumns = `id, team_id, import_session_id, nom, prenom, email, telephone, date_naissance, attributes, created_at, updated_at`

func (r *clientRepository) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	attributes, err := json.Marshal(client.Attributes)
	if err != nil {
		return domain.Client{}, fmt.Errorf("failed to marshal client attributes: %w", err)
	}

	_, err = r.conn.Pool.Exec(
		ctx,
		insertClientSQL,
		clientInsertArgs(client, attributes)...,
	)
	if err != nil {
		return domain.Client{}, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	row := r.conn.Pool.QueryRow(
		ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`,
		id,
	)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Client{}, fmt.Errorf("client not found: %s", id)
		}
		return domain.Client{}, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

func (r *clientRepository) FindByEmail(ctx context.Context, teamID uuid.UUID, email string) ([]domain.Client, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	rows, err := r.conn.Pool.Query(
		ctx,
		`SELECT `+clientColumns+`
		 FROM clients
		 WHERE team_id = $1 AND lower(email) = lower($2)`,
		teamID,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find clients by email: %w", err)
	}
	defer rows.Close()

	return collectClients(rows)
}

func (r *clientRepository) FindByTelephone(ctx context.Context, teamID uuid.UUID, digits string) ([]domain.Client, error) {
	digits = nonDigitPattern.ReplaceAllString(digits, "")
	if digits == "" {
		return nil, nil
	}

	rows, err := r.conn.Pool.Query(
		ctx,
		`SELECT `+clientColumns+`
		 FROM clients
		 WHERE team_id = $1 AND telephone_digits LIKE '%' || $2 || '%'`,
		teamID,
		digits,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find clients by telephone: %w", err)
	}
	defer rows.Close()

	return collectClients(rows)
}

// FindByName matches on both name orientations so swapped nom/prenom
// columns still surface candidates.
func (r *clientRepository) FindByName(ctx context.Context, teamID uuid.UUID, nom, prenom string) ([]domain.Client, error) {
	nom = strings.TrimSpace(nom)
	prenom = strings.TrimSpace(prenom)
	if nom == "" || prenom == "" {
		return nil, nil
	}

	rows, err := r.conn.Pool.Query(
		ctx,
		`SELECT `+clientColumns+`
		 FROM clients
		 WHERE team_id = $1
		   AND ((lower(nom) LIKE '%' || lower($2) || '%' AND lower(prenom) LIKE '%' || lower($3) || '%')
			 OR (lower(nom) LIKE '%' || lower($3) || '%' AND lower(prenom) LIKE '%' || lower($2) || '%'))`,
		teamID,
		nom,
		prenom,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find clients by name: %w", err)
	}
	defer rows.Close()

	return collectClients(rows)
}

// CommitImport writes a client and all of its related sections in one
// transaction.
func (r *clientRepository) CommitImport(ctx context.Context, bundle domain.ClientImport) (domain.Client, error) {
	client := bundle.Client

	attributes, err := json.Marshal(client.Attributes)
	if err != nil {
		return domain.Client{}, fmt.Errorf("failed to marshal client attributes: %w", err)
	}

	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertClientSQL, clientInsertArgs(client, attributes)...); err != nil {
			return fmt.Errorf("failed to insert client: %w", err)
		}
		return insertClientSections(ctx, tx, client.ID, bundle, 0)
	})
	if err != nil {
		return domain.Client{}, err
	}

	return client, nil
}

// MergeImport fills empty attributes on an existing client and appends
// the bundle's sections after the ones already present.
func (r *clientRepository) MergeImport(ctx context.Context, clientID uuid.UUID, bundle domain.ClientImport) (domain.Client, error) {
	var merged domain.Client

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(
			ctx,
			`SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`,
			clientID,
		)

		client, err := scanClient(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("client not found: %s", clientID)
			}
			return fmt.Errorf("failed to load client for merge: %w", err)
		}

		changed := false
		for field, value := range bundle.Client.Attributes {
			if strings.TrimSpace(value) == "" {
				continue
			}
			if client.Has(field) {
				continue
			}
			client = client.WithAttribute(field, value)
			changed = true
		}
		if changed {
			if err := updateClientTx(ctx, tx, client); err != nil {
				return err
			}
		}

		var maxEnfant pgtype.Int4
		if err := tx.QueryRow(ctx, `SELECT MAX(position) FROM client_enfants WHERE client_id = $1`, clientID).Scan(&maxEnfant); err != nil {
			return fmt.Errorf("failed to count enfants: %w", err)
		}
		enfantOffset := 0
		if maxEnfant.Valid {
			enfantOffset = int(maxEnfant.Int32)
		}

		merged = client
		return insertClientSections(ctx, tx, clientID, bundle, enfantOffset)
	})
	if err != nil {
		return domain.Client{}, err
	}

	return merged, nil
}

const insertClientSQL = `INSERT INTO clients (id, team_id, import_session_id, nom, prenom, email, telephone, telephone_digits, date_naissance, attributes, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func clientInsertArgs(client domain.Client, attributes []byte) []any {
	return []any{
		client.ID,
		client.TeamID,
		client.ImportSessionID,
		client.Nom(),
		client.Prenom(),
		client.Email(),
		client.Telephone(),
		nonDigitPattern.ReplaceAllString(client.Telephone(), ""),
		client.DateNaissance(),
		attributes,
		client.CreatedAt,
		client.UpdatedAt,
	}
}

func updateClientTx(ctx context.Context, tx pgx.Tx, client domain.Client) error {
	attributes, err := json.Marshal(client.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal client attributes: %w", err)
	}

	client.UpdatedAt = time.Now()

	_, err = tx.Exec(
		ctx,
		`UPDATE clients
		 SET nom = $2, prenom = $3, email = $4, telephone = $5, telephone_digits = $6,
			 date_naissance = $7, attributes = $8, updated_at = $9
		 WHERE id = $1`,
		client.ID,
		client.Nom(),
		client.Prenom(),
		client.Email(),
		client.Telephone(),
		nonDigitPattern.ReplaceAllString(client.Telephone(), ""),
		client.DateNaissance(),
		attributes,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

// insertClientSections writes the conjoint, enfants and remaining
// section rows of a bundle. The enfant offset shifts positions past
// rows the client already has.
func insertClientSections(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, bundle domain.ClientImport, enfantOffset int) error {
	now := time.Now()

	if err := upsertConjointTx(ctx, tx, clientID, bundle.Conjoint, now); err != nil {
		return err
	}

	for index, enfant := range bundle.Enfants {
		if len(enfant) == 0 {
			continue
		}
		data, err := json.Marshal(enfant)
		if err != nil {
			return fmt.Errorf("failed to marshal enfant: %w", err)
		}
		_, err = tx.Exec(
			ctx,
			`INSERT INTO client_enfants (id, client_id, position, data, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), clientID, enfantOffset+index+1, data, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert enfant: %w", err)
		}
	}

	for tableName, entries := range bundle.Sections {
		var maxPosition pgtype.Int4
		err := tx.QueryRow(
			ctx,
			`SELECT MAX(position) FROM client_sections WHERE client_id = $1 AND table_name = $2`,
			clientID, tableName,
		).Scan(&maxPosition)
		if err != nil {
			return fmt.Errorf("failed to count sections: %w", err)
		}
		offset := 0
		if maxPosition.Valid {
			offset = int(maxPosition.Int32)
		}

		for index, entry := range entries {
			if len(entry) == 0 {
				continue
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal section %s: %w", tableName, err)
			}
			_, err = tx.Exec(
				ctx,
				`INSERT INTO client_sections (id, client_id, table_name, position, data, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.New(), clientID, tableName, offset+index+1, data, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert section %s: %w", tableName, err)
			}
		}
	}

	return nil
}

// upsertConjointTx creates the conjoint record when the client has
// none, otherwise patches only the fields still empty on it. Stored
// values always win over imported ones.
func upsertConjointTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, conjoint map[string]any, now time.Time) error {
	if len(conjoint) == 0 {
		return nil
	}

	var (
		conjointID uuid.UUID
		stored     []byte
	)
	err := tx.QueryRow(
		ctx,
		`SELECT id, data FROM client_conjoints WHERE client_id = $1 ORDER BY created_at LIMIT 1`,
		clientID,
	).Scan(&conjointID, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		data, err := json.Marshal(conjoint)
		if err != nil {
			return fmt.Errorf("failed to marshal conjoint: %w", err)
		}
		_, err = tx.Exec(
			ctx,
			`INSERT INTO client_conjoints (id, client_id, data, created_at)
			 VALUES ($1, $2, $3, $4)`,
			uuid.New(), clientID, data, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert conjoint: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load conjoint: %w", err)
	}

	existing := map[string]any{}
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &existing); err != nil {
			return fmt.Errorf("failed to unmarshal conjoint: %w", err)
		}
	}

	patched, changed := patchConjoint(existing, conjoint)
	if !changed {
		return nil
	}

	data, err := json.Marshal(patched)
	if err != nil {
		return fmt.Errorf("failed to marshal conjoint: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE client_conjoints SET data = $2 WHERE id = $1`, conjointID, data); err != nil {
		return fmt.Errorf("failed to update conjoint: %w", err)
	}
	return nil
}

// patchConjoint fills only fields absent or empty on the stored
// conjoint record.
func patchConjoint(existing, incoming map[string]any) (map[string]any, bool) {
	patched := make(map[string]any, len(existing)+len(incoming))
	for field, value := range existing {
		patched[field] = value
	}

	changed := false
	for field, value := range incoming {
		if emptySectionValue(value) {
			continue
		}
		if current, ok := patched[field]; ok && !emptySectionValue(current) {
			continue
		}
		patched[field] = value
		changed = true
	}

	return patched, changed
}

func emptySectionValue(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	}
	return false
}

func collectClients(rows pgx.Rows) ([]domain.Client, error) {
	clients := []domain.Client{}
	for rows.Next() {
		client, scanErr := scanClient(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan client: %w", scanErr)
		}
		clients = append(clients, client)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", rowsErr)
	}

	return clients, nil
}

func scanClient(row pgx.Row) (domain.Client, error) {
	var (
		client          domain.Client
		importSessionID pgtype.UUID
		nom             pgtype.Text
		prenom          pgtype.Text
		email           pgtype.Text
		telephone       pgtype.Text
		dateNaissance   pgtype.Text
		attributes      []byte
	)

	err := row.Scan(
		&client.ID,
		&client.TeamID,
		&importSessionID,
		&nom,
		&prenom,
		&email,
		&telephone,
		&dateNaissance,
		&attributes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return domain.Client{}, err
	}

	if importSessionID.Valid {
		id := uuid.UUID(importSessionID.Bytes)
		client.ImportSessionID = &id
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &client.Attributes); err != nil {
			return domain.Client{}, fmt.Errorf("failed to unmarshal client attributes: %w", err)
		}
	}

	return client, nil
}
