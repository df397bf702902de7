package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// getQRCode renders a PNG QR code pointing at the public short link.
func (h *urlHandler) getQRCode(w http.ResponseWriter, r *http.Request) {
	size := h.qrSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidQRSizeResponse)
			return
		}
		size = n
	}

	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.CheckURL(r.Context(), shortCode)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	png, err := qrcode.Encode(h.baseURL+"/"+url.ShortCode, qrcode.Medium, size)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="qr.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
