package apiclient

import "testing"

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/products/":           "/products/",
		"/products/17":         "/products/:id",
		"/api/cart/update/3":   "/api/cart/update/:id",
		"/api/cart/remove/900": "/api/cart/remove/:id",
		"/chatbot/converse":    "/chatbot/converse",
	}
	for in, want := range cases {
		if got := routeLabel(in); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
