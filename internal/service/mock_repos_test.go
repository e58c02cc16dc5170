package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/repository"
	pkgmail "superviseme/backend/pkg/mail"
	"superviseme/backend/pkg/telegram"
)

var errStorage = errors.New("storage unavailable")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[uint]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User)}
}

func (m *mockUserRepo) add(u *model.User) *model.User {
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []uint) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) UpdateActivity(_ context.Context, id uint, at time.Time, location string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastActivity = &at
	u.LastActivityLocation = location
	return nil
}

func (m *mockUserRepo) UpdateTelegramSettings(_ context.Context, id uint, enabled bool, chatID *string, types []string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.TelegramEnabled = enabled
	u.TelegramUserID = chatID
	u.TelegramNotificationTypes = types
	return nil
}

// ── Mock ThesisRepository ──

type mockThesisRepo struct {
	users       *mockUserRepo
	theses      map[uint]*model.Thesis
	supervisors map[uint][]uint
}

func newMockThesisRepo(users *mockUserRepo) *mockThesisRepo {
	return &mockThesisRepo{
		users:       users,
		theses:      make(map[uint]*model.Thesis),
		supervisors: make(map[uint][]uint),
	}
}

func (m *mockThesisRepo) add(t *model.Thesis, supervisorIDs ...uint) *model.Thesis {
	m.theses[t.ID] = t
	m.supervisors[t.ID] = supervisorIDs
	return t
}

func (m *mockThesisRepo) GetByID(_ context.Context, id uint) (*model.Thesis, error) {
	t, ok := m.theses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	if t.AuthorID != nil {
		if u, ok := m.users.users[*t.AuthorID]; ok {
			author := *u
			copied.Author = &author
		}
	}
	return &copied, nil
}

func (m *mockThesisRepo) ListSupervisorIDs(_ context.Context, thesisID uint) ([]uint, error) {
	return append([]uint(nil), m.supervisors[thesisID]...), nil
}

func (m *mockThesisRepo) ListBySupervisor(ctx context.Context, supervisorID uint) ([]model.Thesis, error) {
	var result []model.Thesis
	for id, sups := range m.supervisors {
		for _, s := range sups {
			if s == supervisorID {
				t, _ := m.GetByID(ctx, id)
				result = append(result, *t)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockThesisRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	t, ok := m.theses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[uint]*model.ResearchProject
	members  map[uint][]uint
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[uint]*model.ResearchProject), members: make(map[uint][]uint)}
}

func (m *mockProjectRepo) GetByID(_ context.Context, id uint) (*model.ResearchProject, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) ListMemberIDs(_ context.Context, projectID uint) ([]uint, error) {
	p, ok := m.projects[projectID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return append([]uint{p.OwnerID}, m.members[projectID]...), nil
}

// ── Mock TodoRepository ──

type mockTodoRepo struct {
	todos map[uint]*model.Todo
}

func newMockTodoRepo() *mockTodoRepo {
	return &mockTodoRepo{todos: make(map[uint]*model.Todo)}
}

func (m *mockTodoRepo) add(t *model.Todo) *model.Todo {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Date(2026, 1, 1, 0, 0, int(t.ID), 0, time.UTC)
	}
	m.todos[t.ID] = t
	return t
}

func (m *mockTodoRepo) GetByID(_ context.Context, id uint) (*model.Todo, error) {
	if t, ok := m.todos[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTodoRepo) inWorkspace(t *model.Todo, ws model.Workspace) bool {
	return ws.IsZero() || t.Workspace() == ws
}

func (m *mockTodoRepo) FilterExisting(_ context.Context, ws model.Workspace, ids []uint) ([]uint, error) {
	var result []uint
	for _, id := range ids {
		if t, ok := m.todos[id]; ok && m.inWorkspace(t, ws) {
			result = append(result, id)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (m *mockTodoRepo) SearchByTitle(_ context.Context, ws model.Workspace, phrase string) ([]uint, error) {
	var result []uint
	for id, t := range m.todos {
		if m.inWorkspace(t, ws) && strings.Contains(strings.ToLower(t.Title), strings.ToLower(phrase)) {
			result = append(result, id)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (m *mockTodoRepo) UpdateAssignee(_ context.Context, id uint, assigneeID *uint) error {
	t, ok := m.todos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.AssignedToID = assigneeID
	return nil
}

// ── Mock UpdateRepository ──

type mockUpdateRepo struct {
	nextID  uint
	updates map[uint]*model.ThesisUpdate
	failOn  bool
}

func newMockUpdateRepo() *mockUpdateRepo {
	return &mockUpdateRepo{nextID: 100, updates: make(map[uint]*model.ThesisUpdate)}
}

func (m *mockUpdateRepo) Create(_ context.Context, u *model.ThesisUpdate) error {
	if m.failOn {
		return errStorage
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	m.updates[u.ID] = &copied
	return nil
}

func (m *mockUpdateRepo) GetByID(_ context.Context, id uint) (*model.ThesisUpdate, error) {
	if u, ok := m.updates[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUpdateRepo) UpdateContent(_ context.Context, id uint, content string) error {
	u, ok := m.updates[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Content = content
	return nil
}

func (m *mockUpdateRepo) CountByAuthorSince(_ context.Context, thesisID, authorID uint, since time.Time) (int64, error) {
	var n int64
	for _, u := range m.updates {
		if u.ThesisID == thesisID && u.AuthorID == authorID && u.ParentID == nil && !u.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ── Mock MeetingNoteRepository ──

type mockMeetingNoteRepo struct {
	nextID uint
	notes  map[uint]*model.MeetingNote
}

func newMockMeetingNoteRepo() *mockMeetingNoteRepo {
	return &mockMeetingNoteRepo{nextID: 200, notes: make(map[uint]*model.MeetingNote)}
}

func (m *mockMeetingNoteRepo) Create(_ context.Context, n *model.MeetingNote) error {
	m.nextID++
	n.ID = m.nextID
	n.CreatedAt = time.Now()
	copied := *n
	m.notes[n.ID] = &copied
	return nil
}

func (m *mockMeetingNoteRepo) GetByID(_ context.Context, id uint) (*model.MeetingNote, error) {
	if n, ok := m.notes[id]; ok {
		copied := *n
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMeetingNoteRepo) UpdateContent(_ context.Context, id uint, title, content string) error {
	n, ok := m.notes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.Title = title
	n.Content = content
	return nil
}

// ── Mock ReferenceRepository ──

type mockReferenceRepo struct {
	todos   *mockTodoRepo
	updates *mockUpdateRepo
	notes   *mockMeetingNoteRepo
	links   map[model.ContainerRef][]uint
	calls   int
	failOn  bool
}

func newMockReferenceRepo(todos *mockTodoRepo, updates *mockUpdateRepo, notes *mockMeetingNoteRepo) *mockReferenceRepo {
	return &mockReferenceRepo{todos: todos, updates: updates, notes: notes, links: make(map[model.ContainerRef][]uint)}
}

func (m *mockReferenceRepo) Replace(ctx context.Context, container model.ContainerRef, ws model.Workspace, todoIDs []uint) error {
	m.calls++
	if m.failOn {
		// 失败时保持原有链接不变，模拟事务回滚
		return errStorage
	}
	existing, _ := m.todos.FilterExisting(ctx, ws, todoIDs)
	if len(existing) == 0 {
		delete(m.links, container)
		return nil
	}
	m.links[container] = existing
	return nil
}

func (m *mockReferenceRepo) ListTodos(_ context.Context, container model.ContainerRef) ([]model.Todo, error) {
	var result []model.Todo
	for _, id := range m.links[container] {
		if t, ok := m.todos.todos[id]; ok {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *mockReferenceRepo) ListUpdatesReferencing(_ context.Context, todoID uint) ([]model.ThesisUpdate, error) {
	var result []model.ThesisUpdate
	for ref, ids := range m.links {
		if ref.Kind != model.ContainerUpdate {
			continue
		}
		for _, id := range ids {
			if id == todoID {
				if u, ok := m.updates.updates[ref.ID]; ok {
					result = append(result, *u)
				}
			}
		}
	}
	return result, nil
}

func (m *mockReferenceRepo) ListMeetingNotesReferencing(_ context.Context, todoID uint) ([]model.MeetingNote, error) {
	var result []model.MeetingNote
	for ref, ids := range m.links {
		if ref.Kind != model.ContainerMeetingNote {
			continue
		}
		for _, id := range ids {
			if id == todoID {
				if n, ok := m.notes.notes[ref.ID]; ok {
					result = append(result, *n)
				}
			}
		}
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	nextID        uint
	notifications map[uint]*model.Notification
	failCreate    bool
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[uint]*model.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.failCreate {
		return errStorage
	}
	// 与 varchar(200) 列一致：超长标题写入失败
	if utf8.RuneCountInString(n.Title) > model.NotificationTitleMaxLen {
		return errStorage
	}
	m.nextID++
	n.ID = m.nextID
	copied := *n
	m.notifications[n.ID] = &copied
	return nil
}

func (m *mockNotificationRepo) GetForUser(_ context.Context, userID, id uint) (*model.Notification, error) {
	if n, ok := m.notifications[id]; ok && n.UserID == userID {
		copied := *n
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uint, limit int, unreadOnly bool) ([]model.Notification, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, id uint, at time.Time) error {
	if n, ok := m.notifications[id]; ok && n.UserID == userID && !n.IsRead {
		n.IsRead = true
		n.ReadAt = &at
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID uint, at time.Time) (int64, error) {
	var affected int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			affected++
		}
	}
	return affected, nil
}

func (m *mockNotificationRepo) DeleteForUser(_ context.Context, userID, id uint) (int64, error) {
	if n, ok := m.notifications[id]; ok && n.UserID == userID {
		delete(m.notifications, id)
		return 1, nil
	}
	return 0, nil
}

func (m *mockNotificationRepo) DeleteAllForUser(_ context.Context, userID uint) (int64, error) {
	var affected int64
	for id, n := range m.notifications {
		if n.UserID == userID {
			delete(m.notifications, id)
			affected++
		}
	}
	return affected, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID uint) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkTelegramSent(_ context.Context, id uint, at time.Time) error {
	n, ok := m.notifications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.TelegramSent = true
	n.TelegramSentAt = &at
	return nil
}

func (m *mockNotificationRepo) forUser(userID uint) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

// ── Mock TelegramConfigRepository ──

type mockTelegramConfigRepo struct {
	active *model.TelegramBotConfig
}

func (m *mockTelegramConfigRepo) GetActive(_ context.Context) (*model.TelegramBotConfig, error) {
	if m.active == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.active, nil
}

// ── Mock DigestRunRepository ──

type mockDigestRunRepo struct {
	nextID uint
	runs   []*model.DigestRun
}

func (m *mockDigestRunRepo) Claim(_ context.Context, run *model.DigestRun) (bool, error) {
	if run.TriggerType == model.DigestTriggerScheduled {
		for _, r := range m.runs {
			if r.TriggerType == model.DigestTriggerScheduled && r.WeekKey == run.WeekKey {
				return false, nil
			}
		}
	}
	m.nextID++
	run.ID = m.nextID
	m.runs = append(m.runs, run)
	return true, nil
}

func (m *mockDigestRunRepo) Finish(_ context.Context, id uint, sent, failed, skipped int, at time.Time) error {
	for _, r := range m.runs {
		if r.ID == id {
			r.Sent, r.Failed, r.Skipped = sent, failed, skipped
			r.FinishedAt = &at
		}
	}
	return nil
}

func (m *mockDigestRunRepo) Latest(_ context.Context) (*model.DigestRun, error) {
	if len(m.runs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

// ── 聚合 ──

type mockRepos struct {
	users         *mockUserRepo
	theses        *mockThesisRepo
	projects      *mockProjectRepo
	todos         *mockTodoRepo
	updates       *mockUpdateRepo
	notes         *mockMeetingNoteRepo
	refs          *mockReferenceRepo
	notifications *mockNotificationRepo
	telegram      *mockTelegramConfigRepo
	digestRuns    *mockDigestRunRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		users:         newMockUserRepo(),
		projects:      newMockProjectRepo(),
		todos:         newMockTodoRepo(),
		updates:       newMockUpdateRepo(),
		notes:         newMockMeetingNoteRepo(),
		notifications: newMockNotificationRepo(),
		telegram:      &mockTelegramConfigRepo{},
		digestRuns:    &mockDigestRunRepo{},
	}
	m.theses = newMockThesisRepo(m.users)
	m.refs = newMockReferenceRepo(m.todos, m.updates, m.notes)

	repo := &repository.Repository{
		User:           m.users,
		Thesis:         m.theses,
		Project:        m.projects,
		Todo:           m.todos,
		Update:         m.updates,
		MeetingNote:    m.notes,
		Reference:      m.refs,
		Notification:   m.notifications,
		TelegramConfig: m.telegram,
		DigestRun:      m.digestRuns,
	}
	return repo, m
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

// ── 外部依赖替身 ──

// fakeChannel 记录调用并返回预设结果
type fakeChannel struct {
	result dto.SendResult
	calls  []uint
}

func (c *fakeChannel) Send(_ context.Context, userID uint, _, _, _, _ string) dto.SendResult {
	c.calls = append(c.calls, userID)
	return c.result
}

// fakeBot telegram.Client 替身
type fakeBot struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
	chatErr error
}

type sentMessage struct {
	chatID int64
	text   string
}

func (b *fakeBot) Self() telegram.BotIdentity {
	return telegram.BotIdentity{ID: 42, Username: "superviseme_bot", FirstName: "SuperviseMe"}
}

func (b *fakeBot) SendHTML(_ context.Context, chatID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (b *fakeBot) GetChat(_ context.Context, chatID int64) (*telegram.ChatInfo, error) {
	if b.chatErr != nil {
		return nil, b.chatErr
	}
	return &telegram.ChatInfo{ID: chatID, Type: "private", FirstName: "Ada", Username: "ada"}, nil
}

func fakeFactory(bot *fakeBot, factoryErr error) telegram.Factory {
	return func(_ context.Context, token string) (telegram.Client, error) {
		if factoryErr != nil {
			return nil, factoryErr
		}
		if token == "" {
			return nil, telegram.ErrEmptyToken
		}
		return bot, nil
	}
}

// fakeSender 记录邮件，failFor 中的地址发送失败
type fakeSender struct {
	sent    []*pkgmail.Message
	failFor map[string]bool
}

func (s *fakeSender) Send(_ context.Context, msg *pkgmail.Message) error {
	for _, to := range msg.To {
		if s.failFor[to.Address] {
			return errors.New("smtp rejected " + to.Address)
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) recipients() []string {
	var result []string
	for _, m := range s.sent {
		for _, to := range m.To {
			result = append(result, to.Address)
		}
	}
	return result
}
