package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/tbakker/sno-graph/pkg/graph"
	"github.com/tbakker/sno-graph/pkg/logging"
	"github.com/tbakker/sno-graph/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

const graphTopic = "graph"

// NodeView is the JSON shape of one subgraph node.
type NodeView struct {
	ID               int64  `json:"id"`
	Type             string `json:"type"`
	Name             string `json:"name"`
	Distance         int    `json:"distance"`
	Target           bool   `json:"target,omitempty"`
	IncomingFiltered bool   `json:"incomingFiltered,omitempty"`
	OutgoingFiltered bool   `json:"outgoingFiltered,omitempty"`
}

// EdgeView is the JSON shape of one subgraph edge.
type EdgeView struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Label  string `json:"label,omitempty"`
}

// GraphView holds the current extraction for the API.
type GraphView struct {
	Target  int64      `json:"target"`
	Nodes   []NodeView `json:"nodes"`
	Edges   []EdgeView `json:"edges"`
	Dropped int        `json:"dropped"`
}

// Server serves the current subgraph and streams rebuild events.
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu       sync.RWMutex
	view     *GraphView
	document []byte
}

// NewServer creates a new web server.
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// Replay only the latest extraction to new subscribers.
	ssePublisher.ConfigureTopic(graphTopic, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetSubgraph stores a fresh extraction and its rendered document, and
// notifies subscribers.
func (s *Server) SetSubgraph(idx *graph.Index, sg *graph.Subgraph, document []byte) error {
	view := &GraphView{
		Target:  sg.Target(),
		Nodes:   make([]NodeView, 0, len(sg.Nodes())),
		Edges:   make([]EdgeView, 0, len(sg.Edges())),
		Dropped: len(idx.Dangling()),
	}
	for _, n := range sg.Nodes() {
		view.Nodes = append(view.Nodes, NodeView{
			ID:               n.ID(),
			Type:             n.Node.Type,
			Name:             n.Node.Name,
			Distance:         n.Distance,
			Target:           n.Target,
			IncomingFiltered: n.IncomingFiltered,
			OutgoingFiltered: n.OutgoingFiltered,
		})
	}
	for _, e := range sg.Edges() {
		view.Edges = append(view.Edges, EdgeView{
			Source: e.From.ID(),
			Target: e.To.ID(),
			Label:  e.Label,
		})
	}

	s.mu.Lock()
	s.view = view
	s.document = document
	s.mu.Unlock()

	return s.publisher.Publish(graphTopic, "extracted", pubsub.GraphUpdate{
		Target:      view.Target,
		Nodes:       len(view.Nodes),
		Edges:       len(view.Edges),
		Dropped:     view.Dropped,
		GeneratedAt: time.Now(),
	})
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/subscribe/graph", s.handleSubscribe).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/graph.dot", s.handleDocument).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	view := s.view
	s.mu.RUnlock()

	if view == nil {
		view = &GraphView{Nodes: []NodeView{}, Edges: []EdgeView{}}
	}
	if err := json.NewEncoder(w).Encode(view); err != nil {
		logging.ErrorContext(r.Context(), "failed to encode graph view", "error", err)
	}
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	document := s.document
	s.mu.RUnlock()

	if document == nil {
		http.Error(w, "no extraction yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write(document)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream (Safari compatibility).
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), graphTopic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.ErrorContext(r.Context(), "failed to write SSE event", "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the web server on the specified port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "addr", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.router)
}
