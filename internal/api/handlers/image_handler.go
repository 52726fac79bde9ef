package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/models"
)

// maxDimension caps requested widths and heights.
const maxDimension = 4096

// ImageService is what the handlers need from the services layer.
type ImageService interface {
	Random(ctx context.Context) (models.ImageAsset, error)
	Sized(ctx context.Context, dims models.Dims) (models.ImageAsset, error)
	Generated(ctx context.Context) (models.ImageAsset, error)
	Batch(ctx context.Context, n int) ([]models.ImageAsset, error)
	Probe(ctx context.Context) error
}

type ImageHandler struct {
	svc      ImageService
	log      logging.Logger
	batchMax int
}

func NewImageHandler(svc ImageService, log logging.Logger, batchMax int) *ImageHandler {
	if batchMax < 1 {
		batchMax = 20
	}
	return &ImageHandler{svc: svc, log: log.With("component", "http"), batchMax: batchMax}
}

type urlResponse struct {
	URL string `json:"url"`
}

type urlsResponse struct {
	URLs []string `json:"urls"`
}

// Random handles GET /baboon/random.
func (h *ImageHandler) Random(w http.ResponseWriter, r *http.Request) {
	h.log.Info(r.Context(), "random baboon requested")
	asset, err := h.svc.Random(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: asset.URL})
}

// Sized handles GET /baboon/random/{width}/{height}.
func (h *ImageHandler) Sized(w http.ResponseWriter, r *http.Request) {
	width, err := dimension(chi.URLParam(r, "width"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "width: "+err.Error())
		return
	}
	height, err := dimension(chi.URLParam(r, "height"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "height: "+err.Error())
		return
	}

	h.log.Info(r.Context(), "sized baboon requested", "width", width, "height", height)
	asset, err := h.svc.Sized(r.Context(), models.Dims{Width: width, Height: height})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: asset.URL})
}

// Many handles GET /baboon/random/many?quantity=N.
func (h *ImageHandler) Many(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("quantity")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > h.batchMax {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("quantity must be an integer between 1 and %d", h.batchMax))
		return
	}

	h.log.Info(r.Context(), "many baboons requested", "quantity", n)
	assets, err := h.svc.Batch(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	urls := make([]string, len(assets))
	for i, a := range assets {
		urls[i] = a.URL
	}
	writeJSON(w, http.StatusOK, urlsResponse{URLs: urls})
}

// Generated handles GET /baboon/ai.
func (h *ImageHandler) Generated(w http.ResponseWriter, r *http.Request) {
	h.log.Info(r.Context(), "ai baboon requested")
	asset, err := h.svc.Generated(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: asset.URL})
}

// Health handles GET /healthz.
func (h *ImageHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Probe(r.Context()); err != nil {
		h.log.Warn(r.Context(), "store probe failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Clinchou handles GET /clinchou.
func (h *ImageHandler) Clinchou(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "BONJOUR MON CLINCHOU"})
}

// fail writes the public form of err. The services layer has already logged it.
func (h *ImageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := core.Resolve(err)
	writeError(w, status, msg)
}

func dimension(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q", raw)
	}
	if n < 1 || n > maxDimension {
		return 0, fmt.Errorf("must be between 1 and %d", maxDimension)
	}
	return n, nil
}
