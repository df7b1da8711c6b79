package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func TestGetProfile(t *testing.T) {
	ts, deps := startTestServer(t)

	aliceToken, _ := registerUser(t, deps, "alice")
	_, bobID := registerUser(t, deps, "bob")

	resp := doJSON(t, ts, http.MethodGet, "/api/users/"+strconv.FormatInt(bobID, 10), aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var profile ProfileResponse
	decodeInto(t, resp, &profile)
	if profile.ID != bobID || profile.Username != "bob" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	ts, deps := startTestServer(t)

	aliceToken, _ := registerUser(t, deps, "alice")

	resp := doJSON(t, ts, http.MethodGet, "/api/users/9999", aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateProfile_BioOnly(t *testing.T) {
	ts, deps := startTestServer(t)

	aliceToken, aliceID := registerUser(t, deps, "alice")

	form := url.Values{"bio": {"gopher at large"}}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/users/profile", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+aliceToken)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	user, err := deps.store.GetUserByID(context.Background(), aliceID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.Bio != "gopher at large" {
		t.Fatalf("bio not persisted: %q", user.Bio)
	}
}

func TestUpdateProfile_Picture(t *testing.T) {
	ts, deps := startTestServer(t)

	aliceToken, _ := registerUser(t, deps, "alice")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("profile_pic", "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake avatar bytes")); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/users/profile", &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+aliceToken)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var profile ProfileResponse
	decodeInto(t, resp, &profile)
	if !strings.HasPrefix(profile.ProfilePic, "http://test.local/uploads/") {
		t.Fatalf("unexpected profile pic url: %q", profile.ProfilePic)
	}
}

func TestUpdateProfile_NothingToUpdate(t *testing.T) {
	ts, deps := startTestServer(t)

	aliceToken, _ := registerUser(t, deps, "alice")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/users/profile", strings.NewReader(""))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+aliceToken)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", resp.StatusCode)
	}
}
