package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/khelset/internal/scoring"
	"github.com/fortuna/khelset/internal/store"
)

func newMockDB(t *testing.T) (*store.Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return store.NewDatabaseFromDB(conn), mock
}

func matchDoc(t *testing.T) []byte {
	t.Helper()
	m := scoring.NewMatch("m1", "e1", "lions", "tigers", scoring.MatchRules{TotalOvers: 5, PlayersPerTeam: 6})
	doc, err := json.Marshal(m)
	require.NoError(t, err)
	return doc
}

func TestMatchRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM matches WHERE match_id = $1`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(matchDoc(t)))

	m, err := repo.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "lions", m.TeamAID)
	assert.Equal(t, scoring.StatusUpcoming, m.Status)
	assert.Equal(t, 5, m.Rules.TotalOvers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_GetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM matches`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)
	m := scoring.NewMatch("m1", "e1", "lions", "tigers", scoring.MatchRules{TotalOvers: 5, PlayersPerTeam: 6})

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO matches`)).
		WithArgs("m1", "e1", "lions", "tigers", "Upcoming", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), m))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Patch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM matches WHERE match_id = $1 FOR UPDATE`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(matchDoc(t)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE matches SET doc = $2`)).
		WithArgs("m1", sqlmock.AnyArg(), "Upcoming").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := repo.Patch(context.Background(), "m1", map[string]interface{}{
		"rules.totalOvers":      10,
		"rules.customRulesText": "retired hurt may return",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, m.Rules.TotalOvers)
	assert.Equal(t, 6, m.Rules.PlayersPerTeam)
	assert.Equal(t, "retired hurt may return", m.Rules.CustomRulesText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_PatchRollsBackOnBadPath(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(matchDoc(t)))
	mock.ExpectRollback()

	_, err := repo.Patch(context.Background(), "m1", map[string]interface{}{"status.inner": 1})
	assert.ErrorIs(t, err, ErrInvalidPatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_ListByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT match_id, doc FROM matches WHERE status = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"match_id", "doc"}).
			AddRow("m1", matchDoc(t)).
			AddRow("m2", matchDoc(t)))

	matches, err := repo.ListByStatus(context.Background(), scoring.StatusLive, scoring.StatusInningsBreak)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m1", matches[0].ID)
	assert.Equal(t, "m2", matches[1].ID)
}

func TestPlayerRepository_PlayersOfTeam(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlayerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY array_position(t.player_ids, p.player_id)`)).
		WithArgs("lions").
		WillReturnRows(sqlmock.NewRows([]string{"player_id", "name", "role"}).
			AddRow("l1", "Asha", "batter").
			AddRow("l2", "Bimal", "bowler"))

	players, err := repo.PlayersOfTeam(context.Background(), "lions")
	require.NoError(t, err)
	assert.Equal(t, []scoring.Player{
		{ID: "l1", Name: "Asha", Role: "batter"},
		{ID: "l2", Name: "Bimal", Role: "bowler"},
	}, players)
}

func TestPlayerRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlayerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM players`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"player_id", "name", "role", "team_id", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestTeamRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM teams`)).
		WithArgs("lions").
		WillReturnRows(sqlmock.NewRows([]string{
			"team_id", "event_id", "name", "status", "captain_id", "player_ids", "created_at", "updated_at",
		}).AddRow("lions", "e1", "Lions", "approved", "l1", "{l1,l2,l3}", now, now))

	team, err := repo.GetByID(context.Background(), "lions")
	require.NoError(t, err)
	assert.Equal(t, "Lions", team.Name)
	assert.Equal(t, "l1", team.CaptainID.String)
	assert.Equal(t, []string{"l1", "l2", "l3"}, []string(team.PlayerIDs))
}

func TestTeamRepository_Names(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT team_id, name FROM teams`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "name"}).
			AddRow("lions", "Lions").
			AddRow("tigers", "Tigers"))

	names, err := repo.Names(context.Background(), "lions", "tigers", "ghosts")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lions": "Lions", "tigers": "Tigers"}, names)
}

func TestApplyPatch(t *testing.T) {
	tests := []struct {
		name  string
		doc   map[string]interface{}
		patch map[string]interface{}
		want  map[string]interface{}
	}{
		{
			name:  "top-level key replaces",
			doc:   map[string]interface{}{"status": "Live", "currentInnings": 1},
			patch: map[string]interface{}{"status": "Innings Break"},
			want:  map[string]interface{}{"status": "Innings Break", "currentInnings": 1},
		},
		{
			name: "dotted key keeps siblings",
			doc: map[string]interface{}{
				"innings1": map[string]interface{}{"score": 10, "wickets": 1},
			},
			patch: map[string]interface{}{"innings1.score": 14},
			want: map[string]interface{}{
				"innings1": map[string]interface{}{"score": 14, "wickets": 1},
			},
		},
		{
			name:  "missing parents are created",
			doc:   map[string]interface{}{},
			patch: map[string]interface{}{"awards.bestBowlerId": "b1"},
			want: map[string]interface{}{
				"awards": map[string]interface{}{"bestBowlerId": "b1"},
			},
		},
		{
			name:  "null parent is replaced",
			doc:   map[string]interface{}{"awards": nil},
			patch: map[string]interface{}{"awards.manOfTheMatchId": "a1"},
			want: map[string]interface{}{
				"awards": map[string]interface{}{"manOfTheMatchId": "a1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, ApplyPatch(tt.doc, tt.patch))
			assert.Equal(t, tt.want, tt.doc)
		})
	}
}

func TestApplyPatch_Invalid(t *testing.T) {
	doc := map[string]interface{}{"status": "Live"}

	assert.ErrorIs(t, ApplyPatch(doc, map[string]interface{}{"status.x": 1}), ErrInvalidPatch)
	assert.ErrorIs(t, ApplyPatch(doc, map[string]interface{}{"innings1..score": 1}), ErrInvalidPatch)
}
