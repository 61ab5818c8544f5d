package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ezyassist/internal/platform/middleware"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/registration/service"
	dErrors "ezyassist/pkg/domain-errors"
	"ezyassist/pkg/platform/httputil"
)

const maxUploadBody = 20 << 20

// Service is the registration flow as seen by the web form.
type Service interface {
	BeginSetup(ctx context.Context, token string) (*service.SetupView, error)
	ChooseSetup(ctx context.Context, token string, action models.SetupAction) (*service.SetupResult, error)
	FormAccess(ctx context.Context, token string) (*service.FormView, error)
	Submit(ctx context.Context, token string, fields models.FormFields, client models.ClientInfo) (*models.Record, error)
	ResubmitAccess(ctx context.Context, token string) (*service.FormView, error)
	Resubmit(ctx context.Context, token string, fields models.FormFields, client models.ClientInfo) (*models.Record, error)
}

// AttachmentStore keeps proof-of-deposit uploads and returns opaque references.
type AttachmentStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Handler serves the two registration pages, the resubmission page and
// their campaign variants. Pages are JSON views; markup is rendered elsewhere.
type Handler struct {
	svc         Service
	attachments AttachmentStore
	logger      *slog.Logger
}

func New(svc Service, attachments AttachmentStore, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, attachments: attachments, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleSetupPage)
	r.Get("/register/setup", h.handleSetupPage)
	r.Post("/register/setup", h.handleChooseSetup)
	r.Get("/register/form", h.handleFormPage)
	r.Post("/register/submit", h.handleSubmit)
	r.Get("/register/success", h.handleSuccess)
	r.Get("/resubmit", h.handleResubmitPage)
	r.Post("/resubmit", h.handleResubmit)

	r.Route("/campaign/{campaignID}", func(r chi.Router) {
		r.Get("/", h.handleSetupPage)
		r.Post("/continue", h.handleChooseSetup)
		r.Get("/form", h.handleFormPage)
		r.Post("/submit", h.handleSubmit)
	})
}

type setupPage struct {
	SubjectHandle string   `json:"subject_handle,omitempty"`
	CampaignID    string   `json:"campaign_id,omitempty"`
	CurrentAction string   `json:"current_setup_action,omitempty"`
	Options       []string `json:"setup_options"`
	Token         string   `json:"token"`
}

type formPage struct {
	SubjectHandle string        `json:"subject_handle,omitempty"`
	CampaignID    string        `json:"campaign_id,omitempty"`
	SetupAction   string        `json:"setup_action,omitempty"`
	AdminMessage  string        `json:"admin_message,omitempty"`
	Prefill       *prefillValue `json:"prefill,omitempty"`
	MaxProofs     int           `json:"max_proofs"`
	Token         string        `json:"token"`
}

type prefillValue struct {
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone_number"`
	BrokerName    string  `json:"brokerage_name"`
	DepositAmount float64 `json:"deposit_amount"`
	ClientID      string  `json:"client_id"`
	Proofs        int     `json:"existing_proofs"`
}

type submittedPage struct {
	RecordID string `json:"record_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func (h *Handler) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.URL.Query().Get("token")
	view, err := h.svc.BeginSetup(ctx, token)
	if err == nil {
		err = checkCampaign(r, view.Claims.CampaignID)
	}
	if err != nil {
		h.writePageError(w, r, err, token)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, setupPage{
		SubjectHandle: view.Claims.SubjectHandle,
		CampaignID:    view.Claims.CampaignID,
		CurrentAction: string(view.Current),
		Options:       []string{string(models.SetupNewAccount), string(models.SetupPartnerChange)},
		Token:         token,
	})
}

func (h *Handler) handleChooseSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.FormValue("token")
	action := models.SetupAction(strings.TrimSpace(r.FormValue("setup_action")))

	if campaignID := chi.URLParam(r, "campaignID"); campaignID != "" {
		if view, err := h.svc.BeginSetup(ctx, token); err != nil || view.Claims.CampaignID != campaignID {
			h.writePageError(w, r, firstErr(err, errCampaignMismatch), token)
			return
		}
	}

	res, err := h.svc.ChooseSetup(ctx, token, action)
	if err != nil {
		h.writePageError(w, r, err, token)
		return
	}
	h.logger.InfoContext(ctx, "setup step completed",
		"request_id", middleware.GetRequestID(ctx),
		"record_id", res.Record.ID,
		"setup_action", action,
	)
	http.Redirect(w, r, res.FormURL, http.StatusSeeOther)
}

func (h *Handler) handleFormPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.URL.Query().Get("token")
	view, err := h.svc.FormAccess(ctx, token)
	if err == nil {
		err = checkCampaign(r, view.Claims.CampaignID)
	}
	if err != nil {
		h.writePageError(w, r, err, token)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, formPage{
		SubjectHandle: view.Claims.SubjectHandle,
		CampaignID:    view.Claims.CampaignID,
		SetupAction:   string(view.SetupAction),
		MaxProofs:     models.MaxProofs,
		Token:         token,
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, func(ctx context.Context, token string, fields models.FormFields, client models.ClientInfo) (*models.Record, error) {
		if campaignID := chi.URLParam(r, "campaignID"); campaignID != "" {
			view, err := h.svc.BeginSetup(ctx, token)
			if err != nil && !dErrors.HasCode(err, dErrors.CodeAlreadyRegistered) {
				return nil, err
			}
			if view != nil && view.Claims.CampaignID != campaignID {
				return nil, errCampaignMismatch
			}
		}
		return h.svc.Submit(ctx, token, fields, client)
	}, "Terima kasih! Pendaftaran VIP anda telah berjaya.")
}

func (h *Handler) handleResubmitPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.URL.Query().Get("token")
	view, err := h.svc.ResubmitAccess(ctx, token)
	if err != nil {
		h.writePageError(w, r, err, token)
		return
	}
	rec := view.Record
	httputil.WriteJSON(w, http.StatusOK, formPage{
		SubjectHandle: view.Claims.SubjectHandle,
		CampaignID:    rec.CampaignID,
		SetupAction:   string(rec.SetupAction),
		AdminMessage:  rec.AdminMessage,
		Prefill: &prefillValue{
			FullName:      rec.FullName,
			Email:         rec.Email,
			Phone:         rec.Phone,
			BrokerName:    rec.BrokerName,
			DepositAmount: rec.DepositAmount,
			ClientID:      rec.ClientID,
			Proofs:        len(rec.ProofRefs),
		},
		MaxProofs: models.MaxProofs,
		Token:     token,
	})
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, h.svc.Resubmit, "Terima kasih! Maklumat anda telah dikemaskini dan akan disemak semula.")
}

func (h *Handler) handleSuccess(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Terima kasih! Pendaftaran VIP anda telah berjaya. Team kami akan hubungi anda dalam 24 jam.",
	})
}

type submitFunc func(ctx context.Context, token string, fields models.FormFields, client models.ClientInfo) (*models.Record, error)

// handleForm parses the multipart form, stores uploads, and hands off to
// submit. Uploads are removed again if the submission fails.
func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request, submit submitFunc, message string) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.logger.WarnContext(ctx, "failed to parse registration form",
			"request_id", requestID,
			"error", err,
		)
		h.writePageError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid form"), "")
		return
	}
	token := r.FormValue("token")

	fields, err := formFields(r)
	if err != nil {
		h.writePageError(w, r, err, token)
		return
	}

	refs, err := h.saveProofs(ctx, r.MultipartForm)
	if err != nil {
		h.writePageError(w, r, err, token)
		return
	}
	fields.ProofRefs = refs

	rec, err := submit(ctx, token, fields, clientInfo(ctx))
	if err != nil {
		h.discard(ctx, refs)
		h.writePageError(w, r, err, token)
		return
	}

	h.logger.InfoContext(ctx, "registration form accepted",
		"request_id", requestID,
		"record_id", rec.ID,
		"subject_id", rec.SubjectID,
		"proofs", len(refs),
	)
	httputil.WriteJSON(w, http.StatusOK, submittedPage{
		RecordID: rec.ID,
		Status:   string(rec.Status),
		Message:  message,
	})
}

func (h *Handler) saveProofs(ctx context.Context, form *multipart.Form) ([]string, error) {
	if form == nil || h.attachments == nil {
		return nil, nil
	}
	var refs []string
	for i := 1; i <= models.MaxProofs; i++ {
		files := form.File["deposit_proof_"+strconv.Itoa(i)]
		if len(files) == 0 || files[0].Size == 0 {
			continue
		}
		f, err := files[0].Open()
		if err != nil {
			h.discard(ctx, refs)
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read deposit proof")
		}
		ref, err := h.attachments.Save(ctx, f)
		_ = f.Close()
		if err != nil {
			h.discard(ctx, refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (h *Handler) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := h.attachments.Delete(ctx, ref); err != nil {
			h.logger.WarnContext(ctx, "failed to remove orphaned upload", "ref", ref, "error", err)
		}
	}
}

func formFields(r *http.Request) (models.FormFields, error) {
	f := models.FormFields{
		FullName:   r.FormValue("full_name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone_number"),
		BrokerName: r.FormValue("brokerage_name"),
		ClientID:   r.FormValue("client_id"),
	}
	raw := strings.NewReplacer("$", "", ",", "", " ", "").Replace(r.FormValue("deposit_amount"))
	if raw == "" {
		return f, dErrors.New(dErrors.CodeValidation, "deposit_amount is required")
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return f, dErrors.New(dErrors.CodeValidation, "deposit_amount must be a number")
	}
	f.DepositAmount = amount
	return f, nil
}

func clientInfo(ctx context.Context) models.ClientInfo {
	ci := middleware.GetClientInfo(ctx)
	return models.ClientInfo{IPAddress: ci.IPAddress, UserAgent: ci.UserAgent, Device: ci.Device}
}

var errCampaignMismatch = dErrors.New(dErrors.CodeInvalidToken, "link does not belong to this campaign")

func checkCampaign(r *http.Request, tokenCampaign string) error {
	campaignID := chi.URLParam(r, "campaignID")
	if campaignID != "" && campaignID != tokenCampaign {
		return errCampaignMismatch
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// writePageError renders the user-facing error. Token problems all read the
// same; a form opened before setup is sent back to the setup page.
func (h *Handler) writePageError(w http.ResponseWriter, r *http.Request, err error, token string) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeSetupRequired && r.Method == http.MethodGet {
		target := "/register/setup"
		if campaignID := chi.URLParam(r, "campaignID"); campaignID != "" {
			target = "/campaign/" + url.PathEscape(campaignID) + "/"
		}
		http.Redirect(w, r, target+"?token="+url.QueryEscape(token), http.StatusSeeOther)
		return
	}

	level := slog.LevelWarn
	if code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "registration page error",
		"request_id", middleware.GetRequestID(ctx),
		"path", r.URL.Path,
		"code", code,
		"error", err,
	)

	msg := userMessage(code)
	if code == dErrors.CodeValidation {
		if label, ok := invalidFieldLabel(err); ok {
			msg += " Sila semak: " + label + "."
		}
	}
	httputil.WriteJSON(w, httputil.DomainCodeToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": msg,
	})
}

var userMessages = map[dErrors.Code]string{
	dErrors.CodeInvalidToken:      "Pautan tidak sah atau telah tamat tempoh. Sila minta pautan baharu daripada bot.",
	dErrors.CodeAlreadyRegistered: "Anda telah mendaftar untuk akses VIP.",
	dErrors.CodeSetupRequired:     "Sila pilih jenis akaun terlebih dahulu.",
	dErrors.CodeValidation:        "Sila lengkapkan semua medan yang diperlukan dengan betul.",
	dErrors.CodeBadRequest:        "Borang tidak lengkap. Sila cuba lagi.",
	dErrors.CodeNotFound:          "Pendaftaran atau kempen ini tidak lagi tersedia.",
	dErrors.CodeInvalidTransition: "Pendaftaran anda telah disahkan dan tidak boleh dikemaskini lagi.",
	dErrors.CodeConflict:          "Permintaan anda sedang diproses. Sila cuba lagi sebentar.",
}

// fieldLabels names form fields in the language the user sees. Validation
// messages start with the snake_case field name.
var fieldLabels = map[string]string{
	"full_name":      "Nama penuh",
	"email":          "E-mel",
	"phone":          "Nombor telefon",
	"broker_name":    "Nama broker",
	"deposit_amount": "Jumlah deposit",
	"client_id":      "ID akaun broker",
	"proof_refs":     "Bukti deposit",
	"setup":          "Jenis akaun",
}

func invalidFieldLabel(err error) (string, bool) {
	field, _, _ := strings.Cut(err.Error(), " ")
	label, ok := fieldLabels[field]
	return label, ok
}

func userMessage(code dErrors.Code) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return "Maaf, ada masalah teknikal. Sila cuba lagi sebentar."
}
