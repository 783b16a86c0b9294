package main

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"crease/internal/booking"
	"crease/internal/devstore"
)

type RegisterPlayerPayload struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

type playerEnvelope struct {
	PublicID string `json:"publicId"`
	Name     string `json:"name"`
}

func (app *application) registerPlayerHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPlayerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := booking.Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	player, err := app.store.Players.Create(payload.Name, payload.Email, hash)
	if err != nil {
		if errors.Is(err, devstore.ErrConflict) {
			app.conflictResponse(w, r, fmt.Errorf("a player with that email already exists"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, playerEnvelope{PublicID: player.PublicID, Name: player.Name})
}

type CreateTokenPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenEnvelope struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	Player       playerEnvelope `json:"player"`
}

func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := booking.Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	player, err := app.store.Players.GetByEmail(payload.Email)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(payload.Password)); err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		return
	}

	access, refresh, err := app.authenticator.GenerateTokens(player.PublicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, tokenEnvelope{
		AccessToken:  access,
		RefreshToken: refresh,
		Player:       playerEnvelope{PublicID: player.PublicID, Name: player.Name},
	})
}
