/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"net/http"

	"vailethchat/internal/service"
)

// UserHandler shows and edits the profile of the logged user
type UserHandler struct {
	accounts service.AccountService
	pages    *Pages
}

func NewUserHandler(accounts service.AccountService, pages *Pages) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		pages:    pages,
	}
}

func (u *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u.pages.render(w, r, "profile.html", http.StatusOK, nil)
}

func (u *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := r.ParseForm(); err != nil {
		u.pages.redirectWithFlash(w, r, flashError, "Error occurred while parsing the form", "/profile")
		return
	}

	_, err := u.accounts.UpdateProfile(r.Context(), user.ID, service.ProfileInput{
		FirstName:     r.PostForm.Get("first_name"),
		LastName:      r.PostForm.Get("last_name"),
		StatusMessage: r.PostForm.Get("status_message"),
		PhoneNumber:   r.PostForm.Get("phone_number"),
	})
	if err != nil {
		u.pages.fail(w, r, err, "/profile")
		return
	}

	u.pages.redirectWithFlash(w, r, flashSuccess, "Profile updated successfully!", "/profile")
}
