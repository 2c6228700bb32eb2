package api

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handler routes /health, /classify, /models and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.Health)
	mux.HandleFunc("/classify", s.ClassifyHTTP)
	mux.HandleFunc("/models", s.ModelsHTTP)
	mux.HandleFunc("/ws", s.Stream)
	return mux
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) ModelsHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	loaded := s.classifier.Loaded()
	if loaded == nil {
		loaded = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"model_dirs": loaded})
}

// ClassifyHTTP takes the image either as the multipart field "image" or as
// the raw request body. Query parameters model_dir and top_k override the
// server defaults.
func (s *Server) ClassifyHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	k, err := topK(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "InvalidArgument"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes)
	image, err := readImage(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "InvalidArgument"})
		return
	}

	c, err := s.classify(image, r.URL.Query().Get("model_dir"), k)
	if err != nil {
		writeJSON(w, httpStatus(err), errorResponse{Error: err.Error(), Code: code(err).String()})
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Stream classifies every binary message on a websocket and replies with a
// result or an error object per message.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	k, err := topK(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	modelDir := r.URL.Query().Get("model_dir")
	if _, err := s.resolve(modelDir); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxImageBytes)

	log := s.log.WithField("remote", r.RemoteAddr)
	log.Info("websocket connected")

	for {
		kind, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Error("websocket read failed")
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		var reply interface{}
		if c, err := s.classify(message, modelDir, k); err != nil {
			reply = errorResponse{Error: err.Error(), Code: code(err).String()}
		} else {
			reply = c
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Error("websocket write failed")
			return
		}
	}
}

func topK(r *http.Request) (int, error) {
	v := r.URL.Query().Get("top_k")
	if v == "" {
		return 0, nil
	}
	k, err := strconv.Atoi(v)
	if err != nil || k <= 0 {
		return 0, fmt.Errorf("top_k has to be a positive integer, got %q", v)
	}
	return k, nil
}

func readImage(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return ioutil.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("no image file provided, use 'image' as the form field name: %w", err)
	}
	defer file.Close()

	return ioutil.ReadAll(file)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
