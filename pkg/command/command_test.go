// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package command

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

func newMockQueue(t *testing.T) (*Queue, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	st := store.New(nil, sqlx.NewDb(db, "postgres"))
	return New(nil, nil, st, nil, nil), mock
}

var commandCols = []string{
	"id", "tenant_id", "device_id", "type", "payload", "status",
	"requested_by_user_id", "requested_at",
}

// A poll hands back the queued commands oldest-first and flips them to
// DELIVERED inside the same transaction.
func TestPollPendingDeliversInOrder(t *testing.T) {
	q, mock := newMockQueue(t)
	t0 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM commands`).
		WithArgs("dev-1", model.CommandQueued).
		WillReturnRows(sqlmock.NewRows(commandCols).
			AddRow("cmd-1", "tenant-a", "dev-1", "REMOTE_BOOST_SET", []byte(`{}`), "QUEUED", "user-1", t0).
			AddRow("cmd-2", "tenant-a", "dev-1", "SET_CONFIG", []byte(`{}`), "QUEUED", "user-1", t0.Add(time.Minute)))
	mock.ExpectExec(`UPDATE commands SET status = \$1, delivered_at = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	cmds, err := q.PollPending(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	require.Equal(t, "cmd-1", cmds[0].ID)
	require.Equal(t, "cmd-2", cmds[1].ID)
	for _, c := range cmds {
		require.Equal(t, model.CommandDelivered, c.Status)
		require.NotNil(t, c.DeliveredAt)
	}
}

// An empty queue polls clean: no UPDATE is issued and the result is empty.
func TestPollPendingEmpty(t *testing.T) {
	q, mock := newMockQueue(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM commands`).
		WithArgs("dev-1", model.CommandQueued).
		WillReturnRows(sqlmock.NewRows(commandCols))
	mock.ExpectCommit()

	cmds, err := q.PollPending(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Empty(t, cmds)
}

func TestAckRejectsNonTerminalStatus(t *testing.T) {
	q, _ := newMockQueue(t)

	_, err := q.Ack(context.Background(), "dev-1", "cmd-1", model.CommandQueued, nil)
	require.Error(t, err)
}
