package dashboardhandler

import "net/http"

// Handle covers the landing paths for anonymous visitors. Authenticated
// visitors never reach here; the gate has already routed them to the
// dashboard for their role.
func Handle(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
