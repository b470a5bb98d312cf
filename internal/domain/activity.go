package domain

// Activity is a best-effort feed entry for one user. Delivery is not
// guaranteed and nothing in the lending lifecycle depends on it.
type Activity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedOn int64  `json:"created_on"`
}
