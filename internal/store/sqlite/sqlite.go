// Package sqlite is the durable store adapter backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ventureline/internal/domain"
	"ventureline/internal/store"
)

type Store struct {
	DB *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func scanVenture(row *sql.Row) (domain.Venture, error) {
	var v domain.Venture
	err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.CurrentStage, &v.IsCompleted, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return v, store.ErrNotFound
	}
	return v, err
}

func (s *Store) InsertVenture(ctx context.Context, v domain.Venture) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO ventures(id,user_id,title,current_stage,is_completed,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		v.ID, v.UserID, v.Title, v.CurrentStage, v.IsCompleted, v.CreatedAt, v.UpdatedAt)
	return err
}

func (s *Store) GetVenture(ctx context.Context, id string) (domain.Venture, error) {
	return scanVenture(s.DB.QueryRowContext(ctx, `SELECT id,user_id,title,current_stage,is_completed,created_at,updated_at FROM ventures WHERE id=?`, id))
}

func (s *Store) ListVentures(ctx context.Context, userID string) ([]domain.Venture, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id,user_id,title,current_stage,is_completed,created_at,updated_at FROM ventures WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Venture
	for rows.Next() {
		var v domain.Venture
		if err := rows.Scan(&v.ID, &v.UserID, &v.Title, &v.CurrentStage, &v.IsCompleted, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func (s *Store) UpdateVenture(ctx context.Context, id string, upd store.VentureUpdate) error {
	sets := []string{"updated_at=?"}
	args := []any{upd.UpdatedAt}
	if upd.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *upd.Title)
	}
	if upd.CurrentStage != nil {
		sets = append(sets, "current_stage=?")
		args = append(args, *upd.CurrentStage)
	}
	if upd.IsCompleted != nil {
		sets = append(sets, "is_completed=?")
		args = append(args, *upd.IsCompleted)
	}
	args = append(args, id)
	res, err := s.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE ventures SET %s WHERE id=?`, strings.Join(sets, ",")), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteVenture(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	// Explicit child deletes so cascade does not depend on the
	// foreign_keys pragma surviving pooled connections.
	for _, q := range []string{
		`DELETE FROM stage_contents WHERE venture_id=?`,
		`DELETE FROM chat_messages WHERE venture_id=?`,
		`DELETE FROM reports WHERE venture_id=?`,
		`DELETE FROM events WHERE venture_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM ventures WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return tx.Commit()
}

func scanStageContent(scan func(dest ...any) error) (domain.StageContent, error) {
	var sc domain.StageContent
	var stage string
	var content string
	var analysis sql.NullString
	err := scan(&sc.ID, &sc.VentureID, &stage, &content, &analysis, &sc.IsCompleted, &sc.UpdatedAt)
	if err == sql.ErrNoRows {
		return sc, store.ErrNotFound
	}
	if err != nil {
		return sc, err
	}
	sc.Stage = domain.Stage(stage)
	sc.Content = json.RawMessage(content)
	if analysis.Valid && analysis.String != "" {
		sc.AIAnalysis = json.RawMessage(analysis.String)
	}
	return sc, nil
}

func (s *Store) UpsertStageContent(ctx context.Context, upsert store.StageContentUpsert) (domain.StageContent, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.StageContent{}, err
	}
	defer tx.Rollback()

	existing, err := scanStageContent(tx.QueryRowContext(ctx,
		`SELECT id,venture_id,stage,content,ai_analysis,is_completed,updated_at FROM stage_contents WHERE venture_id=? AND stage=?`,
		upsert.VentureID, upsert.Stage).Scan)
	if err != nil && err != store.ErrNotFound {
		return domain.StageContent{}, err
	}

	next := existing
	if err == store.ErrNotFound {
		next = domain.StageContent{
			ID:        upsert.NewID,
			VentureID: upsert.VentureID,
			Stage:     upsert.Stage,
			Content:   json.RawMessage(`{}`),
		}
	}
	if upsert.Content != nil {
		next.Content = json.RawMessage(upsert.Content)
	}
	if upsert.AIAnalysis != nil {
		next.AIAnalysis = json.RawMessage(upsert.AIAnalysis)
	}
	if upsert.IsCompleted != nil {
		next.IsCompleted = *upsert.IsCompleted
	}
	next.UpdatedAt = upsert.UpdatedAt

	var analysis any
	if len(next.AIAnalysis) > 0 {
		analysis = string(next.AIAnalysis)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO stage_contents(id,venture_id,stage,content,ai_analysis,is_completed,updated_at) VALUES (?,?,?,?,?,?,?)
		 ON CONFLICT(venture_id,stage) DO UPDATE SET content=excluded.content, ai_analysis=excluded.ai_analysis, is_completed=excluded.is_completed, updated_at=excluded.updated_at`,
		next.ID, next.VentureID, string(next.Stage), string(next.Content), analysis, next.IsCompleted, next.UpdatedAt)
	if err != nil {
		return domain.StageContent{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.StageContent{}, err
	}
	return next, nil
}

func (s *Store) GetStageContent(ctx context.Context, ventureID string, stage domain.Stage) (domain.StageContent, error) {
	return scanStageContent(s.DB.QueryRowContext(ctx,
		`SELECT id,venture_id,stage,content,ai_analysis,is_completed,updated_at FROM stage_contents WHERE venture_id=? AND stage=?`,
		ventureID, string(stage)).Scan)
}

func (s *Store) ListStageContents(ctx context.Context, ventureID string) ([]domain.StageContent, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id,venture_id,stage,content,ai_analysis,is_completed,updated_at FROM stage_contents WHERE venture_id=?`,
		ventureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.StageContent
	for rows.Next() {
		sc, err := scanStageContent(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Canonical stage order, not insertion order.
	sort.Slice(res, func(i, j int) bool { return res[i].Stage.Order() < res[j].Stage.Order() })
	return res, nil
}

func (s *Store) AppendChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO chat_messages(id,venture_id,stage,role,content,timestamp,seq) VALUES (?,?,?,?,?,?,(SELECT COALESCE(MAX(seq),0)+1 FROM chat_messages WHERE venture_id=?))`,
		msg.ID, msg.VentureID, string(msg.Stage), msg.Role, msg.Content, msg.Timestamp, msg.VentureID)
	return err
}

func (s *Store) ListChatMessages(ctx context.Context, ventureID string, stage domain.Stage) ([]domain.ChatMessage, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id,venture_id,stage,role,content,timestamp FROM chat_messages WHERE venture_id=? AND stage=? ORDER BY seq`,
		ventureID, string(stage))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var st string
		if err := rows.Scan(&m.ID, &m.VentureID, &st, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Stage = domain.Stage(st)
		res = append(res, m)
	}
	return res, rows.Err()
}

func (s *Store) UpsertReport(ctx context.Context, r domain.Report) error {
	deck, err := json.Marshal(r.PitchDeck)
	if err != nil {
		return fmt.Errorf("sqlite: encode pitch deck: %w", err)
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO reports(id,venture_id,title,full_report,pitch_deck,elevator_pitch,full_pitch,created_at) VALUES (?,?,?,?,?,?,?,?)
		 ON CONFLICT(venture_id) DO UPDATE SET id=excluded.id, title=excluded.title, full_report=excluded.full_report, pitch_deck=excluded.pitch_deck, elevator_pitch=excluded.elevator_pitch, full_pitch=excluded.full_pitch, created_at=excluded.created_at`,
		r.ID, r.VentureID, r.Title, string(r.FullReport), string(deck), r.ElevatorPitch, r.FullPitch, r.CreatedAt)
	return err
}

func (s *Store) GetReport(ctx context.Context, ventureID string) (domain.Report, error) {
	var r domain.Report
	var full, deck string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id,venture_id,title,full_report,pitch_deck,elevator_pitch,full_pitch,created_at FROM reports WHERE venture_id=?`,
		ventureID).Scan(&r.ID, &r.VentureID, &r.Title, &full, &deck, &r.ElevatorPitch, &r.FullPitch, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return r, store.ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.FullReport = json.RawMessage(full)
	if err := json.Unmarshal([]byte(deck), &r.PitchDeck); err != nil {
		return r, fmt.Errorf("sqlite: decode pitch deck: %w", err)
	}
	return r, nil
}

func (s *Store) AppendEvent(ctx context.Context, e domain.Event) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO events(ts,type,venture_id,stage,user_id,payload_json) VALUES (?,?,?,?,?,?)`,
		e.TS, e.Type, e.VentureID, string(e.Stage), e.UserID, e.Payload)
	return err
}

func (s *Store) LatestEvents(ctx context.Context, limit int, ventureID, evtType string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	where := []string{"1=1"}
	args := []any{}
	if ventureID != "" {
		where = append(where, "venture_id=?")
		args = append(args, ventureID)
	}
	if evtType != "" {
		where = append(where, "type=?")
		args = append(args, evtType)
	}
	args = append(args, limit)
	rows, err := s.DB.QueryContext(ctx,
		fmt.Sprintf(`SELECT id,ts,type,COALESCE(venture_id,''),COALESCE(stage,''),user_id,payload_json FROM events WHERE %s ORDER BY id DESC LIMIT ?`, strings.Join(where, " AND ")),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var st string
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.VentureID, &st, &e.UserID, &e.Payload); err != nil {
			return nil, err
		}
		e.Stage = domain.Stage(st)
		res = append(res, e)
	}
	return res, rows.Err()
}
