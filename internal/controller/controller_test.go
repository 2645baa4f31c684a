package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/roster/internal/directory"
	"github.com/five82/roster/internal/metrics"
	"github.com/five82/roster/internal/state"
)

// fakeDirectory lets each test script the directory's replies.
type fakeDirectory struct {
	list   func(ctx context.Context) ([]directory.User, error)
	create func(ctx context.Context, d directory.Draft) (directory.Reply, error)
	update func(ctx context.Context, id int, d directory.Draft) (directory.Reply, error)
	remove func(ctx context.Context, id int) (directory.Reply, error)
}

func (f *fakeDirectory) List(ctx context.Context) ([]directory.User, error) {
	if f.list == nil {
		return nil, errors.New("list not scripted")
	}
	return f.list(ctx)
}

func (f *fakeDirectory) Create(ctx context.Context, d directory.Draft) (directory.Reply, error) {
	if f.create == nil {
		return directory.Reply{}, errors.New("create not scripted")
	}
	return f.create(ctx, d)
}

func (f *fakeDirectory) Update(ctx context.Context, id int, d directory.Draft) (directory.Reply, error) {
	if f.update == nil {
		return directory.Reply{}, errors.New("update not scripted")
	}
	return f.update(ctx, id, d)
}

func (f *fakeDirectory) Delete(ctx context.Context, id int) (directory.Reply, error) {
	if f.remove == nil {
		return directory.Reply{}, errors.New("delete not scripted")
	}
	return f.remove(ctx, id)
}

func reply(status int, body string) directory.Reply {
	return directory.Reply{Status: status, Body: []byte(body), RequestID: "req-1"}
}

func seedUsers() []directory.User {
	return []directory.User{
		{ID: 1, Name: "Ann", Email: "a@x.com", Username: "ann", Phone: "1-770",
			Address: directory.Address{Street: "Kulas Light", City: "Gwenborough", Geo: directory.Geo{Lat: -37.3159, Lng: 81.1496}},
			Company: directory.Company{Name: "Romaguera", CatchPhrase: "neural-net", BS: "e-markets"}},
		{ID: 2, Name: "Bo", Email: "b@x.com", Website: "bo.dev"},
	}
}

func newController(t *testing.T, dir directory.Directory) (*Controller, *state.Store) {
	t.Helper()
	store := &state.Store{}
	c, err := New(Options{Directory: dir, Store: store})
	require.NoError(t, err)
	return c, store
}

func wait(t *testing.T, task *Task) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err, "task %s did not resolve", task.Op())
	return res
}

func loaded(t *testing.T, users []directory.User) (*Controller, *state.Store, *fakeDirectory) {
	t.Helper()
	dir := &fakeDirectory{list: func(context.Context) ([]directory.User, error) { return users, nil }}
	c, store := newController(t, dir)
	require.Equal(t, Applied, wait(t, c.LoadAll()).Outcome)
	return c, store, dir
}

func TestNew_RequiresDirectoryAndStore(t *testing.T) {
	_, err := New(Options{Store: &state.Store{}})
	assert.Error(t, err)
	_, err = New(Options{Directory: &fakeDirectory{}})
	assert.Error(t, err)
}

func TestScenario_LoadAddUpdateDelete(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path+" "+string(body))
		mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Ann","email":"a@x.com","username":"ann"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/users":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":999,"name":"Bo","email":"b@x.com","username":""}`))
		case r.Method == http.MethodPut && r.URL.Path == "/users/1":
			_, _ = w.Write([]byte(`{"id":1}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/users/2":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client, err := directory.NewClient(server.URL)
	require.NoError(t, err)
	c, store := newController(t, client)

	assert.True(t, store.Snapshot().Loading())

	res := wait(t, c.LoadAll())
	require.Equal(t, Applied, res.Outcome)
	snap := store.Snapshot()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, 1, snap.Users[0].ID)

	res = wait(t, c.AddUser("Bo", "b@x.com"))
	require.Equal(t, Applied, res.Outcome, res.String())
	assert.Equal(t, 2, res.UserID)
	snap = store.Snapshot()
	require.Len(t, snap.Users, 2)
	assert.Equal(t, 2, snap.Users[1].ID, "id comes from the local count, not the server")
	assert.Equal(t, "Bo", snap.Users[1].Name)

	res = wait(t, c.UpdateUser(1, "Ann2", "a2@x.com"))
	require.Equal(t, Applied, res.Outcome, res.String())
	u, ok := store.Snapshot().Find(1)
	require.True(t, ok)
	assert.Equal(t, "Ann2", u.Name)
	assert.Equal(t, "a2@x.com", u.Email)
	assert.Equal(t, "ann", u.Username)

	res = wait(t, c.DeleteUser(2))
	require.Equal(t, Applied, res.Outcome, res.String())
	snap = store.Snapshot()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, 1, snap.Users[0].ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"GET /users ",
		`POST /users {"name":"Bo","email":"b@x.com"}`,
		`PUT /users/1 {"name":"Ann2","email":"a2@x.com"}`,
		"DELETE /users/2 ",
	}, seen)
}

func TestLoadAndAdd_KeepOpaqueFieldsOfAnyType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"name":"Ann","email":"a@x.com","phone":5551234,"address":{"zipcode":12345},"geo":{"lat":1}}]`))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":999,"name":"Bo","email":"b@x.com","phone":5550000}`))
		}
	}))
	t.Cleanup(server.Close)

	client, err := directory.NewClient(server.URL)
	require.NoError(t, err)
	c, store := newController(t, client)

	res := wait(t, c.LoadAll())
	require.Equal(t, Applied, res.Outcome, res.String())
	res = wait(t, c.AddUser("Bo", "b@x.com"))
	require.Equal(t, Applied, res.Outcome, res.String())

	users := store.Snapshot().Users
	require.Len(t, users, 2)
	assert.Equal(t, "5551234", users[0].Phone)
	assert.Equal(t, "12345", users[0].Address.Zipcode)
	assert.Equal(t, 2, users[1].ID)

	out, err := json.Marshal(users)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":1,"name":"Ann","email":"a@x.com","phone":5551234,"address":{"zipcode":12345},"geo":{"lat":1}},
		{"id":2,"name":"Bo","email":"b@x.com","phone":5550000}
	]`, string(out))
}

func TestLoadAll_IsIdempotent(t *testing.T) {
	c, store, _ := loaded(t, seedUsers())
	first := store.Snapshot()

	require.Equal(t, Applied, wait(t, c.LoadAll()).Outcome)
	second := store.Snapshot()

	assert.Equal(t, first.Users, second.Users)
	assert.Equal(t, seedUsers(), second.Users, "server order is kept")
}

func TestLoadAll_FailureKeepsState(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	before := store.Snapshot()

	dir.list = func(context.Context) ([]directory.User, error) {
		return nil, directory.ErrNotArray
	}
	res := wait(t, c.LoadAll())
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, directory.ErrNotArray)
	assert.Equal(t, before, store.Snapshot())
}

func TestLoadAll_FailureOnEmptyStateStaysLoading(t *testing.T) {
	dir := &fakeDirectory{list: func(context.Context) ([]directory.User, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	c, store := newController(t, dir)
	res := wait(t, c.LoadAll())
	assert.Equal(t, Failed, res.Outcome)
	assert.True(t, store.Snapshot().Loading())
	assert.Zero(t, store.Snapshot().Version)
}

func TestAddUser_AppendsNeverOverwrites(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	before := store.Snapshot()

	var gotDraft directory.Draft
	dir.create = func(_ context.Context, d directory.Draft) (directory.Reply, error) {
		gotDraft = d
		return reply(http.StatusCreated, `{"id":11,"name":"Cy","email":"c@x.com","username":"cy"}`), nil
	}

	res := wait(t, c.AddUser("Cy", "c@x.com"))
	require.Equal(t, Applied, res.Outcome)
	assert.Equal(t, directory.Draft{Name: "Cy", Email: "c@x.com"}, gotDraft)

	snap := store.Snapshot()
	require.Len(t, snap.Users, len(before.Users)+1)
	assert.Equal(t, before.Users, snap.Users[:len(before.Users)])
	last := snap.Users[len(snap.Users)-1]
	assert.Equal(t, len(before.Users)+1, last.ID)
	assert.Equal(t, "cy", last.Username, "other fields come from the reply body")
	assert.Equal(t, snap, res.Snapshot)
}

func TestAddUser_UndecodableBodyFails(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	before := store.Snapshot()
	dir.create = func(context.Context, directory.Draft) (directory.Reply, error) {
		return reply(http.StatusCreated, `<html>`), nil
	}
	res := wait(t, c.AddUser("Cy", "c@x.com"))
	assert.Equal(t, Failed, res.Outcome)
	assert.Contains(t, res.Err.Error(), "decode response")
	assert.Equal(t, before, store.Snapshot())
}

// Ids are derived from the list length, so a delete followed by an add
// reuses an id that is still taken.
func TestAddUser_IDCanCollideAfterDelete(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	dir.remove = func(context.Context, int) (directory.Reply, error) {
		return reply(http.StatusOK, `{}`), nil
	}
	dir.create = func(context.Context, directory.Draft) (directory.Reply, error) {
		return reply(http.StatusCreated, `{"id":11,"name":"Cy","email":"c@x.com"}`), nil
	}

	require.Equal(t, Applied, wait(t, c.DeleteUser(1)).Outcome)
	res := wait(t, c.AddUser("Cy", "c@x.com"))
	require.Equal(t, Applied, res.Outcome)
	assert.Equal(t, 2, res.UserID)

	users := store.Snapshot().Users
	require.Len(t, users, 2)
	assert.Equal(t, 2, users[0].ID)
	assert.Equal(t, 2, users[1].ID)
	assert.Equal(t, "Bo", users[0].Name)
	assert.Equal(t, "Cy", users[1].Name)
}

func TestDeleteUser_IsPureFilter(t *testing.T) {
	for _, id := range []int{1, 2, 42} {
		c, store, dir := loaded(t, seedUsers())
		before := store.Snapshot()
		var gotID int
		dir.remove = func(_ context.Context, id int) (directory.Reply, error) {
			gotID = id
			return reply(http.StatusOK, `{}`), nil
		}

		res := wait(t, c.DeleteUser(id))
		require.Equal(t, Applied, res.Outcome)
		assert.Equal(t, id, gotID)

		var want []directory.User
		for _, u := range before.Users {
			if u.ID != id {
				want = append(want, u)
			}
		}
		assert.Equal(t, want, store.Snapshot().Users, "delete %d", id)
	}
}

func TestUpdateUser_PreservesNonTargetedFields(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	before := store.Snapshot()
	dir.update = func(context.Context, int, directory.Draft) (directory.Reply, error) {
		return reply(http.StatusOK, ``), nil
	}

	require.Equal(t, Applied, wait(t, c.UpdateUser(1, "Ann2", "a2@x.com")).Outcome)

	after := store.Snapshot()
	want := before.Users[0]
	want.Name, want.Email = "Ann2", "a2@x.com"
	assert.Equal(t, want, after.Users[0])
	assert.Equal(t, before.Users[1:], after.Users[1:])
}

func TestUpdateUser_AnyNonZeroStatusCounts(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	dir.update = func(context.Context, int, directory.Draft) (directory.Reply, error) {
		return reply(http.StatusInternalServerError, `oops`), nil
	}
	res := wait(t, c.UpdateUser(2, "Bo2", "b2@x.com"))
	assert.Equal(t, Applied, res.Outcome)
	u, _ := store.Snapshot().Find(2)
	assert.Equal(t, "Bo2", u.Name)
}

func TestNonQualifyingStatusesAreNoops(t *testing.T) {
	cases := []struct {
		name string
		run  func(c *Controller, dir *fakeDirectory) *Task
	}{
		{"create 200", func(c *Controller, dir *fakeDirectory) *Task {
			dir.create = func(context.Context, directory.Draft) (directory.Reply, error) {
				return reply(http.StatusOK, `{"id":3,"name":"Cy"}`), nil
			}
			return c.AddUser("Cy", "c@x.com")
		}},
		{"delete 204", func(c *Controller, dir *fakeDirectory) *Task {
			dir.remove = func(context.Context, int) (directory.Reply, error) {
				return reply(http.StatusNoContent, ``), nil
			}
			return c.DeleteUser(1)
		}},
		{"update 0", func(c *Controller, dir *fakeDirectory) *Task {
			dir.update = func(context.Context, int, directory.Draft) (directory.Reply, error) {
				return reply(0, ``), nil
			}
			return c.UpdateUser(1, "x", "y")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, store, dir := loaded(t, seedUsers())
			before := store.Snapshot()

			res := wait(t, tc.run(c, dir))
			assert.Equal(t, Rejected, res.Outcome)
			assert.ErrorIs(t, res.Err, ErrRejected)
			assert.Equal(t, before, store.Snapshot())
		})
	}
}

func TestTransportErrorsAreNoops(t *testing.T) {
	boom := errors.New("connection reset")
	c, store, dir := loaded(t, seedUsers())
	dir.create = func(context.Context, directory.Draft) (directory.Reply, error) { return directory.Reply{}, boom }
	dir.update = func(context.Context, int, directory.Draft) (directory.Reply, error) { return directory.Reply{}, boom }
	dir.remove = func(context.Context, int) (directory.Reply, error) { return directory.Reply{}, boom }
	before := store.Snapshot()

	for _, task := range []*Task{c.AddUser("x", "y"), c.UpdateUser(1, "x", "y"), c.DeleteUser(1)} {
		res := wait(t, task)
		assert.Equal(t, Failed, res.Outcome, task.Op())
		assert.ErrorIs(t, res.Err, boom)
	}
	assert.Equal(t, before, store.Snapshot())
}

func TestCancelAbortsInFlightCall(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	before := store.Snapshot()

	started := make(chan struct{})
	dir.remove = func(ctx context.Context, _ int) (directory.Reply, error) {
		close(started)
		<-ctx.Done()
		return directory.Reply{}, ctx.Err()
	}

	task := c.DeleteUser(1)
	<-started
	task.Cancel()

	res := wait(t, task)
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, before, store.Snapshot())
}

func TestCancelAfterReplyBeforeApplyChangesNothing(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())
	before := store.Snapshot()

	release := make(chan struct{})
	var task *Task
	dir.remove = func(context.Context, int) (directory.Reply, error) {
		<-release
		task.Cancel()
		return reply(http.StatusOK, `{}`), nil
	}
	task = c.DeleteUser(1)
	close(release)

	res := wait(t, task)
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, before, store.Snapshot())
}

func TestMutationsApplyInCompletionOrder(t *testing.T) {
	c, store, dir := loaded(t, seedUsers())

	gates := map[string]chan struct{}{"first": make(chan struct{}), "second": make(chan struct{})}
	dir.create = func(_ context.Context, d directory.Draft) (directory.Reply, error) {
		<-gates[d.Name]
		body, _ := json.Marshal(directory.User{ID: 500, Name: d.Name, Email: d.Email})
		return reply(http.StatusCreated, string(body)), nil
	}

	first := c.AddUser("first", "1@x.com")
	second := c.AddUser("second", "2@x.com")

	close(gates["second"])
	r2 := wait(t, second)
	close(gates["first"])
	r1 := wait(t, first)

	assert.Equal(t, 3, r2.UserID)
	assert.Equal(t, 4, r1.UserID)
	snap := store.Snapshot()
	require.Len(t, snap.Users, 4)
	assert.Equal(t, "second", snap.Users[2].Name)
	assert.Equal(t, "first", snap.Users[3].Name)
}

func TestTaskWaitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	dir := &fakeDirectory{list: func(context.Context) ([]directory.User, error) {
		<-block
		return nil, nil
	}}
	c, _ := newController(t, dir)

	task := c.LoadAll()
	_, ok := task.Result()
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, OpLoad, res.Op)
}

func TestParentContextCancelsTasks(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	dir := &fakeDirectory{list: func(ctx context.Context) ([]directory.User, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	store := &state.Store{}
	c, err := New(Options{Directory: dir, Store: store, Context: parent})
	require.NoError(t, err)

	task := c.LoadAll()
	cancel()
	res := wait(t, task)
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestReportLogsAndCounts(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	collector := metrics.New()
	dir := &fakeDirectory{
		list: func(context.Context) ([]directory.User, error) { return seedUsers(), nil },
		create: func(context.Context, directory.Draft) (directory.Reply, error) {
			return reply(http.StatusOK, `{}`), nil
		},
		remove: func(context.Context, int) (directory.Reply, error) {
			return directory.Reply{}, errors.New("unreachable")
		},
	}
	c, err := New(Options{Directory: dir, Store: &state.Store{}, Logger: logger, Metrics: collector})
	require.NoError(t, err)

	wait(t, c.LoadAll())
	wait(t, c.AddUser("x", "y"))
	wait(t, c.DeleteUser(1))

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	levels := map[logrus.Level]string{}
	for _, e := range entries {
		levels[e.Level] = e.Message
		assert.Equal(t, "controller", e.Data["component"])
	}
	assert.Equal(t, "load applied", levels[logrus.InfoLevel])
	assert.Equal(t, "add rejected by directory", levels[logrus.WarnLevel])
	assert.True(t, strings.HasPrefix(levels[logrus.ErrorLevel], "delete failed"))

	reg := collector.Registry()
	count, err := testutil.GatherAndCount(reg, "roster_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	users, err := testutil.GatherAndCount(reg, "roster_users")
	require.NoError(t, err)
	assert.Equal(t, 1, users)
}

func TestOutcomeAndResultStrings(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "pending", Outcome(0).String())

	assert.Equal(t, "delete rejected (status 204)", Result{Op: OpDelete, Outcome: Rejected, Status: 204}.String())
	assert.Equal(t, "load applied", Result{Op: OpLoad, Outcome: Applied}.String())
	assert.Contains(t, Result{Op: OpAdd, Outcome: Failed, Err: errors.New("x")}.String(), "add failed: x")
}
