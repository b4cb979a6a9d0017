// A stand-in for the external booking API and the code-validation endpoint,
// for local harness runs. Set FAIL_STEP to one of createCart, prepareBooking,
// bookCart or fetchCodes to make that step answer 500, which is handy for
// checking that provisioning aborts cleanly.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/mux"
)

type createCartRequest struct {
	SessionID int `json:"sessionId"`
	Tickets   int `json:"tickets"`
}

type codeRecord struct {
	Code string `json:"code"`
}

type mockServer struct {
	failStep string

	mu      sync.Mutex
	carts   map[string]int // cartID -> tickets requested
	tickets map[string]int // ticketID -> tickets booked
	nextID  int
}

func (s *mockServer) failing(step string, w http.ResponseWriter) bool {
	if s.failStep != step {
		return false
	}
	http.Error(w, "injected failure at "+step, http.StatusInternalServerError)
	return true
}

func (s *mockServer) createCart(w http.ResponseWriter, r *http.Request) {
	if s.failing("createCart", w) {
		return
	}
	var req createCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tickets < 1 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.nextID++
	cartID := fmt.Sprintf("cart-%d", s.nextID)
	s.carts[cartID] = req.Tickets
	s.mu.Unlock()

	log.Printf("Created %s for session %d with %d tickets", cartID, req.SessionID, req.Tickets)
	json.NewEncoder(w).Encode(map[string]string{"cartId": cartID})
}

func (s *mockServer) prepareBooking(w http.ResponseWriter, r *http.Request) {
	if s.failing("prepareBooking", w) {
		return
	}
	cartID := mux.Vars(r)["cartId"]

	s.mu.Lock()
	_, ok := s.carts[cartID]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Unknown cart", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *mockServer) bookFree(w http.ResponseWriter, r *http.Request) {
	if s.failing("bookCart", w) {
		return
	}
	cartID := mux.Vars(r)["cartId"]

	s.mu.Lock()
	tickets, ok := s.carts[cartID]
	if ok {
		s.nextID++
		ticketID := fmt.Sprintf("ticket-%d", s.nextID)
		s.tickets[ticketID] = tickets
		s.mu.Unlock()
		log.Printf("Booked %s as %s", cartID, ticketID)
		json.NewEncoder(w).Encode(map[string]string{"ticketId": ticketID})
		return
	}
	s.mu.Unlock()
	http.Error(w, "Unknown cart", http.StatusNotFound)
}

func (s *mockServer) fetchCodes(w http.ResponseWriter, r *http.Request) {
	if s.failing("fetchCodes", w) {
		return
	}
	ticketID := mux.Vars(r)["ticketId"]

	s.mu.Lock()
	tickets, ok := s.tickets[ticketID]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Unknown ticket", http.StatusNotFound)
		return
	}

	codes := make([]codeRecord, tickets)
	for i := range codes {
		codes[i] = codeRecord{Code: fmt.Sprintf("%s-code-%d", ticketID, i+1)}
	}
	json.NewEncoder(w).Encode(map[string][]codeRecord{"codes": codes})
}

func (s *mockServer) validateCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	s := &mockServer{
		failStep: os.Getenv("FAIL_STEP"),
		carts:    make(map[string]int),
		tickets:  make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/carts", s.createCart).Methods(http.MethodPost)
	r.HandleFunc("/carts/{cartId}/prepare", s.prepareBooking).Methods(http.MethodPost)
	r.HandleFunc("/carts/{cartId}/book-free", s.bookFree).Methods(http.MethodPost)
	r.HandleFunc("/tickets/{ticketId}/codes", s.fetchCodes).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/codes/validate", s.validateCode).Methods(http.MethodPost)

	log.Printf("Booking API mock starting on port %s...", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
