package fichadas

import (
	"context"
	"database/sql"
	"errors"

	"fichadas-sync/internal/platform/db"
)

// SourceStore reads and archives pending clock events in the relational
// source of record. The pending table is drained by this worker; the
// agent table is only joined for the display number.
type SourceStore struct{ conn *sql.DB }

func NewSourceStore(conn *sql.DB) *SourceStore { return &SourceStore{conn: conn} }

// FetchNext returns the oldest pending clock event, or nil when the
// pending set is empty. Runs read-only: fetching never mutates the source.
func (s *SourceStore) FetchNext(ctx context.Context) (*ClockEvent, error) {
	const q = `
SELECT f.id, f.id_agente, COALESCE(a.numero, ''), f.fecha, f.es_entrada, f.reloj
FROM personal_fichadas_sync f
LEFT JOIN personal_agentes a ON f.id_agente = a.id
ORDER BY f.fecha ASC
LIMIT 1`

	var (
		ev        ClockEvent
		esEntrada int
	)
	err := db.ReadOnly(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		row := tx.QueryRowContext(ctx, q)
		return row.Scan(&ev.ID, &ev.AgentRef, &ev.AgentNumber, &ev.Timestamp, &esEntrada, &ev.DeviceRef)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ErrSource(err)
	}
	ev.IsEntrance = esEntrada != 0
	return &ev, nil
}

// Archive removes a pending event by id once it is durably recorded
// downstream. Deleting an id that is already gone is not an error.
func (s *SourceStore) Archive(ctx context.Context, id int64) error {
	const q = `DELETE FROM personal_fichadas_sync WHERE id = ? LIMIT 1`
	if _, err := s.conn.ExecContext(ctx, q, id); err != nil {
		return ErrSource(err)
	}
	return nil
}
