package api

import (
	"net/http"
)

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	user, err := a.users.RegisterUser(req.Username, req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusCreated, Response{Message: "User registered", Data: user})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	token, err := a.users.LoginUser(req.Username, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, Response{Data: map[string]string{"token": token}})
}
