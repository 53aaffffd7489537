package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

// UserHeader carries the caller identity established by the upstream gateway.
const UserHeader = "X-User-ID"

type RESTHandler struct {
	service  *app.ExamService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewRESTHandler(service *app.ExamService, logger *zap.Logger) *RESTHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.Named("rest"),
	}
}

type createPaperRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
	SubjectIDs   []string `json:"subjectIds" validate:"omitempty,dive,required"`
	TopicIDs     []string `json:"topicIds" validate:"omitempty,dive,required"`
	SubtopicIDs  []string `json:"subtopicIds" validate:"omitempty,dive,required"`
	QuestionIDs  []string `json:"questionIds" validate:"omitempty,dive,required"`
	TimeLimitMin *int     `json:"timeLimitMin" validate:"omitempty,gt=0"`
}

type answerRequest struct {
	SelectedOptionID *string `json:"selectedOptionId" validate:"omitempty,min=1"`
}

// Routes mounts the REST endpoints.
func (h *RESTHandler) Routes(r chi.Router) {
	r.Post("/papers", h.createPaper)
	r.Get("/papers/{paperID}", h.getPaper)
	r.Post("/papers/{paperID}/submissions", h.startSubmission)
	r.Get("/submissions/{submissionID}", h.getSubmission)
	r.Get("/submissions/{submissionID}/answers", h.listAnswers)
	r.Put("/submissions/{submissionID}/answers/{questionID}", h.submitAnswer)
	r.Post("/submissions/{submissionID}/finalize", h.finalize)
	r.Get("/users/me/analytics/{dimension}", h.analytics)
	r.Get("/users/me/profile", h.profile)
}

func (h *RESTHandler) createPaper(w http.ResponseWriter, r *http.Request) {
	var req createPaperRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	paper, err := h.service.CreatePaper(r.Context(), domain.Paper{
		Title:        req.Title,
		Description:  req.Description,
		SubjectIDs:   req.SubjectIDs,
		TopicIDs:     req.TopicIDs,
		SubtopicIDs:  req.SubtopicIDs,
		QuestionIDs:  req.QuestionIDs,
		TimeLimitMin: req.TimeLimitMin,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, paper)
}

func (h *RESTHandler) getPaper(w http.ResponseWriter, r *http.Request) {
	paper, err := h.service.GetPaper(r.Context(), chi.URLParam(r, "paperID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, paper)
}

func (h *RESTHandler) startSubmission(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	started, err := h.service.StartSubmission(r.Context(), userID, chi.URLParam(r, "paperID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, started)
}

func (h *RESTHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ownedSubmission(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (h *RESTHandler) listAnswers(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ownedSubmission(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	answers, err := h.service.ListAnswers(r.Context(), sub.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, answers)
}

func (h *RESTHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ownedSubmission(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req answerRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	answer, err := h.service.SubmitAnswer(r.Context(), sub.ID, chi.URLParam(r, "questionID"), req.SelectedOptionID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, answer)
}

func (h *RESTHandler) finalize(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ownedSubmission(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	finalized, err := h.service.FinalizeSubmission(r.Context(), sub.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, finalized)
}

func (h *RESTHandler) analytics(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	dim, err := domain.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	totals, err := h.service.AggregateBy(r.Context(), userID, dim)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

func (h *RESTHandler) profile(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// ownedSubmission loads the path submission and checks it belongs to the caller.
func (h *RESTHandler) ownedSubmission(r *http.Request) (domain.Submission, error) {
	userID, err := requireUser(r)
	if err != nil {
		return domain.Submission{}, err
	}
	sub, err := h.service.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
	if err != nil {
		return domain.Submission{}, err
	}
	if sub.UserID != userID {
		return domain.Submission{}, errNotOwner
	}
	return sub, nil
}

func (h *RESTHandler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func requireUser(r *http.Request) (string, error) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		return "", domain.ErrMissingUser
	}
	return userID, nil
}
