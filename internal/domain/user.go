package domain

// Default values applied to records created on first login.
var DefaultPreferences = []string{"AI", "Web Dev"}

// UserRecord is one user's profile, preferences, orders and owned courses.
type UserRecord struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Preferences []string `json:"preferences"`
	Orders      []Order  `json:"orders"`
	Courses     []string `json:"courses"`
}

// NewUserRecord builds the record created on first login.
func NewUserRecord(email, name string) *UserRecord {
	return &UserRecord{
		Email:       email,
		Name:        name,
		Preferences: append([]string(nil), DefaultPreferences...),
		Orders:      []Order{},
		Courses:     []string{},
	}
}

// HasCourse reports whether the course has been granted.
func (u *UserRecord) HasCourse(course string) bool {
	for _, c := range u.Courses {
		if c == course {
			return true
		}
	}
	return false
}

// GrantCourse adds the course unless already owned.
func (u *UserRecord) GrantCourse(course string) {
	if !u.HasCourse(course) {
		u.Courses = append(u.Courses, course)
	}
}

// FailedOrders returns the orders whose status is Failed, in order.
func (u *UserRecord) FailedOrders() []Order {
	var failed []Order
	for _, o := range u.Orders {
		if o.Status == OrderStatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Clone returns a deep copy so callers never share slices with the store.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	out := &UserRecord{
		Email:       u.Email,
		Name:        u.Name,
		Preferences: append([]string{}, u.Preferences...),
		Orders:      make([]Order, len(u.Orders)),
		Courses:     append([]string{}, u.Courses...),
	}
	for i, o := range u.Orders {
		out.Orders[i] = o.clone()
	}
	return out
}
