package cart

import "context"

// Authority is the single source a session's cart is read from and written to.
type Authority string

const (
	AuthorityGuest  Authority = "guest"
	AuthorityServer Authority = "server"
)

// AuthorityFor selects the authority from whether a token is attached.
func AuthorityFor(hasToken bool) Authority {
	if hasToken {
		return AuthorityServer
	}
	return AuthorityGuest
}

// syncAuthority switches authority when the attached token changed since the last call.
func (s *service) syncAuthority(ctx context.Context, st *state) error {
	token, ok, err := s.sessions.Token(ctx, st.id)
	if err != nil {
		return err
	}
	next := AuthorityFor(ok)
	if next == st.authority && (next == AuthorityGuest || st.token == token) {
		return nil
	}
	if next == AuthorityServer {
		s.becomeServer(st, token)
	} else {
		s.becomeGuest(st)
	}
	return nil
}

// becomeServer drops the in-memory guest copy. The guest store itself is untouched.
func (s *service) becomeServer(st *state, token string) {
	st.authority = AuthorityServer
	st.token = token
	st.guest = nil
	st.guestLoaded = false
	st.server = nil
	st.serverSubtotal = nil
	st.serverLoaded = false
}

// becomeGuest clears the server snapshot without copying it into the guest store.
func (s *service) becomeGuest(st *state) {
	st.authority = AuthorityGuest
	st.token = ""
	st.server = nil
	st.serverSubtotal = nil
	st.serverLoaded = false
	st.guest = nil
	st.guestLoaded = false
}
