package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
	"jee-exam-service/internal/infra/memory"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	service, paperID := newTestService(t)
	wsHandler := NewWSHandler(service, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, "start", map[string]any{"paperId": paperID})
	_, payload := readNext(conn, t, "started")
	if payload["submissionId"] == "" {
		t.Fatalf("expected submission id, got %v", payload)
	}

	send(t, conn, "answer", map[string]any{"questionId": "q1", "selectedOptionId": "o2"})
	_, payload = readNext(conn, t, "answerResult")
	if payload["isCorrect"] != true {
		t.Fatalf("expected correct answer, got %v", payload)
	}

	send(t, conn, "finalize", nil)
	_, payload = readNext(conn, t, "finalized")
	if payload["correctCount"] != float64(1) || payload["scorePercent"] != float64(50) {
		t.Fatalf("unexpected finalized payload %v", payload)
	}

	send(t, conn, "answer", map[string]any{"questionId": "q2", "selectedOptionId": "o1"})
	_, payload = readNext(conn, t, "error")
	if payload["code"] != float64(http.StatusConflict) {
		t.Fatalf("expected conflict after finalize, got %v", payload)
	}
}

func TestWebSocketRequiresSubmission(t *testing.T) {
	service, _ := newTestService(t)
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service, nil).ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"?userId=u1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, "finalize", nil)
	readNext(conn, t, "error")

	send(t, conn, "shout", nil)
	_, payload := readNext(conn, t, "error")
	if payload["code"] != float64(http.StatusBadRequest) {
		t.Fatalf("expected bad request for unknown type, got %v", payload)
	}
}

func TestWebSocketRejectsAnonymous(t *testing.T) {
	service, _ := newTestService(t)
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service, nil).ServeWS))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):], nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

// newTestService returns a service over in-memory stores with one two-question paper.
func newTestService(t *testing.T) (*app.ExamService, string) {
	t.Helper()
	catalog := memory.NewStaticCatalog(
		domain.Question{
			ID:        "q1",
			SubjectID: "phy",
			Options: []domain.Option{
				{ID: "o1", Text: "3", IsCorrect: false},
				{ID: "o2", Text: "4", IsCorrect: true},
			},
		},
		domain.Question{
			ID:        "q2",
			SubjectID: "chem",
			Options: []domain.Option{
				{ID: "o1", Text: "H2O", IsCorrect: true},
				{ID: "o2", Text: "CO2", IsCorrect: false},
			},
		},
	)
	submissions := memory.NewSubmissionStore()
	service := app.NewExamService(
		memory.NewPaperStore(),
		submissions,
		memory.NewAnalytics(submissions, catalog),
		catalog,
		app.DefaultPolicy(),
		nil,
	)
	paper, err := service.CreatePaper(context.Background(), domain.Paper{Title: "Mock test", QuestionIDs: []string{"q1", "q2"}})
	if err != nil {
		t.Fatalf("create paper: %v", err)
	}
	return service, paper.ID
}
