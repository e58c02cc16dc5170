package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock NotificationService ──

type mockNotificationService struct {
	list        []model.Notification
	listErr     error
	unread      int64
	markErr     error
	deleteErr   error
	affected    int64
	lastLimit   int
	lastUnread  bool
	lastUserID  uint
	lastNotifID uint
}

func (m *mockNotificationService) Notify(_ context.Context, _ service.NotifyParams) (*model.Notification, error) {
	return nil, nil
}
func (m *mockNotificationService) ListForUser(_ context.Context, userID uint, limit int, unreadOnly bool) ([]model.Notification, error) {
	m.lastUserID, m.lastLimit, m.lastUnread = userID, limit, unreadOnly
	return m.list, m.listErr
}
func (m *mockNotificationService) MarkRead(_ context.Context, userID, id uint) error {
	m.lastUserID, m.lastNotifID = userID, id
	return m.markErr
}
func (m *mockNotificationService) MarkAllRead(_ context.Context, _ uint) (int64, error) {
	return m.affected, nil
}
func (m *mockNotificationService) Delete(_ context.Context, userID, id uint) error {
	m.lastUserID, m.lastNotifID = userID, id
	return m.deleteErr
}
func (m *mockNotificationService) ClearAll(_ context.Context, _ uint) (int64, error) {
	return m.affected, nil
}
func (m *mockNotificationService) UnreadCount(_ context.Context, _ uint) (int64, error) {
	return m.unread, nil
}

// ── Mock TelegramService ──

type mockTelegramService struct {
	sendResult   dto.SendResult
	verifyResult dto.ChatVerifyResponse
	botResult    dto.BotInfoResponse
	prefs        *dto.TelegramPreferencesResponse
	prefsErr     error
	lastChatID   string
}

func (m *mockTelegramService) Send(_ context.Context, _ uint, _, _, _, _ string) dto.SendResult {
	return m.sendResult
}
func (m *mockTelegramService) VerifyChat(_ context.Context, chatID string) dto.ChatVerifyResponse {
	m.lastChatID = chatID
	return m.verifyResult
}
func (m *mockTelegramService) BotInfo(_ context.Context) dto.BotInfoResponse { return m.botResult }
func (m *mockTelegramService) SendTest(_ context.Context, _ uint) dto.SendResult {
	return m.sendResult
}
func (m *mockTelegramService) GetPreferences(_ context.Context, _ uint) (*dto.TelegramPreferencesResponse, error) {
	return m.prefs, m.prefsErr
}
func (m *mockTelegramService) UpdatePreferences(_ context.Context, _ uint, _ *dto.UpdateTelegramPreferencesRequest) (*dto.TelegramPreferencesResponse, error) {
	return m.prefs, m.prefsErr
}

// ── Mock ContentService / ReferenceService ──

type mockContentService struct {
	update    *dto.UpdateResponse
	note      *dto.MeetingNoteResponse
	err       error
	lastActor service.Actor
	lastID    uint
}

func (m *mockContentService) CreateUpdate(_ context.Context, actor service.Actor, thesisID uint, _ *dto.CreateUpdateRequest) (*dto.UpdateResponse, error) {
	m.lastActor, m.lastID = actor, thesisID
	return m.update, m.err
}
func (m *mockContentService) EditUpdate(_ context.Context, actor service.Actor, id uint, _ *dto.EditUpdateRequest) (*dto.UpdateResponse, error) {
	m.lastActor, m.lastID = actor, id
	return m.update, m.err
}
func (m *mockContentService) CreateMeetingNote(_ context.Context, actor service.Actor, _ *dto.CreateMeetingNoteRequest) (*dto.MeetingNoteResponse, error) {
	m.lastActor = actor
	return m.note, m.err
}
func (m *mockContentService) EditMeetingNote(_ context.Context, actor service.Actor, id uint, _ *dto.EditMeetingNoteRequest) (*dto.MeetingNoteResponse, error) {
	m.lastActor, m.lastID = actor, id
	return m.note, m.err
}

type mockReferenceService struct {
	todos         []model.Todo
	containers    []dto.ReferencingContainer
	err           error
	lastContainer model.ContainerRef
}

func (m *mockReferenceService) Resolve(_ context.Context, _ model.Workspace, _ string) ([]uint, error) {
	return nil, nil
}
func (m *mockReferenceService) SetReferences(_ context.Context, _ model.ContainerRef, _ []uint) error {
	return nil
}
func (m *mockReferenceService) Sync(_ context.Context, _ model.ContainerRef, _ string) ([]uint, error) {
	return nil, nil
}
func (m *mockReferenceService) ReferencesForContainer(_ context.Context, container model.ContainerRef) ([]model.Todo, error) {
	m.lastContainer = container
	return m.todos, m.err
}
func (m *mockReferenceService) ContainersReferencing(_ context.Context, _ uint) ([]dto.ReferencingContainer, error) {
	return m.containers, m.err
}

// ── Mock TodoService / ThesisService / UserService ──

type mockTodoService struct {
	brief        *dto.TodoBrief
	err          error
	lastAssignee *uint
}

func (m *mockTodoService) Assign(_ context.Context, _, _ uint, assigneeID *uint) (*dto.TodoBrief, error) {
	m.lastAssignee = assigneeID
	return m.brief, m.err
}

type mockThesisService struct {
	resp *dto.ThesisStatusResponse
	err  error
}

func (m *mockThesisService) ChangeStatus(_ context.Context, _, _ uint, _ string) (*dto.ThesisStatusResponse, error) {
	return m.resp, m.err
}

type mockUserService struct {
	profile *dto.UserResponse
	err     error
}

func (m *mockUserService) GetProfile(_ context.Context, _ uint) (*dto.UserResponse, error) {
	return m.profile, m.err
}
func (m *mockUserService) TouchActivity(_ context.Context, _ uint, _ string) error { return nil }

// ── Mock 周报 ──

type mockDigestController struct {
	result        *dto.DigestRunResult
	status        dto.SchedulerStatus
	rescheduleErr error
	rescheduled   []int
}

func (m *mockDigestController) TriggerNow(_ context.Context) *dto.DigestRunResult { return m.result }
func (m *mockDigestController) Reschedule(weekday, hour, minute int) error {
	m.rescheduled = []int{weekday, hour, minute}
	return m.rescheduleErr
}
func (m *mockDigestController) Status() dto.SchedulerStatus { return m.status }

type mockDigestService struct {
	last      *dto.DigestRunResult
	exportBuf *bytes.Buffer
	exportErr error
}

func (m *mockDigestService) Run(_ context.Context, _ string, _ bool) (*dto.DigestRunResult, error) {
	return nil, nil
}
func (m *mockDigestService) BuildDigest(_ context.Context, _ *model.User, _ time.Time) (*dto.WeeklyDigest, error) {
	return nil, nil
}
func (m *mockDigestService) LastRun(_ context.Context) (*dto.DigestRunResult, error) {
	return m.last, nil
}
func (m *mockDigestService) ExportForSupervisor(_ context.Context, _ uint) (*bytes.Buffer, string, error) {
	return m.exportBuf, "weekly-digest-2026-10-19.xlsx", m.exportErr
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// withAuth 模拟 JWTAuth 注入的用户信息
func withAuth(id uint, role string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Set("role", role)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func uintPtr(v uint) *uint { return &v }
