package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/dalnet/nebo/internal/metrics"
	"github.com/gorilla/mux"
)

// ChannelStatus is one open channel in the status report
type ChannelStatus struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
	Topic string `json:"topic,omitempty"`
}

// ContactStatus is one contact in the status report
type ContactStatus struct {
	Nick   string `json:"nick"`
	Status string `json:"status"`
}

// Status is the JSON body served at /status
type Status struct {
	Nick     string          `json:"nick"`
	Server   string          `json:"server"`
	Network  string          `json:"network,omitempty"`
	Ready    bool            `json:"ready"`
	Channels []ChannelStatus `json:"channels"`
	Contacts []ContactStatus `json:"contacts"`
	Offers   int             `json:"dcc_offers"`
}

// Status reports the client's current state
func (b *Bridge) Status() Status {
	status := Status{
		Nick:     b.client.User().Nick(),
		Server:   b.client.ServerName(),
		Network:  b.client.ServerSupports().Network(),
		Ready:    b.client.Ready(),
		Channels: []ChannelStatus{},
		Contacts: []ContactStatus{},
	}
	for _, ch := range b.client.Channels().List() {
		if !ch.Open() {
			continue
		}
		status.Channels = append(status.Channels, ChannelStatus{
			Name:  ch.Name(),
			Users: ch.Users.Len(),
			Topic: ch.Topic(),
		})
	}
	for _, u := range b.contacts.Users() {
		status.Contacts = append(status.Contacts, ContactStatus{
			Nick:   u.Nick(),
			Status: u.OnlineStatus().String(),
		})
	}
	b.mu.RLock()
	status.Offers = len(b.offers)
	b.mu.RUnlock()
	return status
}

// Router serves /status and /metrics
func (b *Bridge) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", b.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	return r
}

func (b *Bridge) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b.Status()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
