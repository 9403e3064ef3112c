package server

import (
	"errors"
	"net/http"

	"visionestoque/internal/models"
	"visionestoque/internal/security"
	"visionestoque/internal/services"
)

// multipartOverhead is headroom on top of the file size cap for the
// multipart framing and form fields.
const multipartOverhead = 1 << 20

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: ServiceVersion,
	})
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxFileSize+multipartOverhead)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("upload body exceeded size cap")
			s.respondError(w, http.StatusRequestEntityTooLarge, "Arquivo muito grande")
			return
		}
		// A part named "image" with an empty filename parses as a form value,
		// not a file. That is a selection the client never made, which gets
		// its own message.
		if r.MultipartForm != nil {
			if _, ok := r.MultipartForm.Value["image"]; ok {
				logger.Warn("upload attempt with empty filename")
				s.respondError(w, http.StatusBadRequest, "Nenhuma imagem selecionada")
				return
			}
		}
		logger.Warn("upload attempt without image file")
		s.respondError(w, http.StatusBadRequest, "Nenhum arquivo de imagem fornecido")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		logger.Warn("upload attempt with empty filename")
		s.respondError(w, http.StatusBadRequest, "Nenhuma imagem selecionada")
		return
	}

	upload := &security.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}

	outcome, err := s.extractor.Process(r.Context(), upload)
	if err != nil {
		var verr *security.ValidationError
		if errors.As(err, &verr) {
			logger.WithField("reason", verr.Message).Warn("file validation failed")
			s.respondError(w, http.StatusBadRequest, verr.Message)
			return
		}

		var uerr *services.UpstreamError
		if errors.As(err, &uerr) {
			logger.WithError(uerr.Err).WithField("stage", uerr.Stage).Error("upstream call failed")
		} else {
			logger.WithError(err).Error("error processing upload")
		}
		s.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	if outcome.Document == nil {
		s.respond(w, http.StatusOK, models.RawOutputResponse{
			Message:   "Imagem processada, mas a saída não foi um JSON válido.",
			RawOutput: outcome.RawOutput,
			Error:     "Formato de resposta inválido",
		})
		return
	}

	s.respond(w, http.StatusOK, models.UploadResponse{
		Message:             "Imagem processada com sucesso e dados extraídos.",
		ExtractedData:       outcome.Document,
		NotificationSummary: outcome.Summary,
	})
}

// handleLogin is a stub: real session auth never made it past the static
// token check.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.config.EnableAuth {
		s.respond(w, http.StatusOK, models.MessageResponse{Message: "Autenticação não está habilitada"})
		return
	}

	if r.Method == http.MethodPost {
		s.respond(w, http.StatusNotImplemented, models.MessageResponse{Message: "Login não implementado ainda"})
		return
	}

	s.respond(w, http.StatusOK, models.MessageResponse{Message: "Página de login"})
}
