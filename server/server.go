package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/techcorp/helpdesk/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

var multiNewline = regexp.MustCompile(`\n\n+`)

// Retriever is the query boundary the server orchestrates.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, category string) []models.RetrievedChunk
}

// Composer is the answer boundary the server orchestrates.
type Composer interface {
	Compose(ctx context.Context, question string, contextChunks []string, categories []models.Category) (string, error)
}

type ChatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Category string `json:"category,omitempty"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Message is the websocket frame exchanged on /ws.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type Config struct {
	Port string
}

// Server is the request-handler boundary: it validates input, runs one
// retrieval followed by one composition per question, and formats the result
// for transport. It holds no mutable state, so concurrent requests are safe.
type Server struct {
	config     Config
	retriever  Retriever
	composer   Composer
	categories []models.Category
}

func New(config Config, retriever Retriever, composer Composer, categories []models.Category) *Server {
	if config.Port == "" {
		config.Port = "8080"
	}

	return &Server{
		config:     config,
		retriever:  retriever,
		composer:   composer,
		categories: categories,
	}
}

// Handler returns the HTTP routes: POST /chat, GET /health, and the /ws
// websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *Server) ListenAndServe() error {
	log.Printf("Starting help-desk server on port %s", s.config.Port)
	return http.ListenAndServe(":"+s.config.Port, s.Handler())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question cannot be empty.")
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}

	results := s.retriever.Retrieve(r.Context(), req.Question, req.TopK, req.Category)

	chunks := make([]string, 0, len(results))
	var sources []string
	seen := make(map[string]bool)
	for _, res := range results {
		chunks = append(chunks, res.Text)
		if parentID, ok := res.Meta["parent_id"].(string); ok && !seen[parentID] {
			sources = append(sources, parentID)
			seen[parentID] = true
		}
	}

	answer, err := s.composer.Compose(r.Context(), req.Question, chunks, s.categories)
	if err != nil {
		log.Printf("server: compose failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate answer")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		answer = htmlize(answer)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		Answer:  answer,
		Sources: sources,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		s.handleMessage(conn, msg)
	}
}

func (s *Server) handleMessage(conn *websocket.Conn, msg Message) {
	question := strings.TrimSpace(msg.Content)
	if question == "" {
		s.sendMessage(conn, "error", "Question cannot be empty.")
		return
	}

	ctx := context.Background()
	results := s.retriever.Retrieve(ctx, question, 5, "")

	chunks := make([]string, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, res.Text)
	}

	answer, err := s.composer.Compose(ctx, question, chunks, s.categories)
	if err != nil {
		s.sendMessage(conn, "error", "failed to generate answer")
		return
	}
	s.sendMessage(conn, "response", answer)
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// htmlize converts the answer's newlines into HTML line breaks for the
// format=html query param.
func htmlize(answer string) string {
	answer = multiNewline.ReplaceAllString(answer, "<br><br>")
	return strings.ReplaceAll(answer, "\n", "<br>")
}
