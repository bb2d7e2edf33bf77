package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestCreateAddressPostsBody(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/addresses" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["consignee_name"] != "An" || body["house_num"] != "12" || body["is_default"] != true {
			t.Fatalf("unexpected body %+v", body)
		}
		return jsonResponse(http.StatusCreated, `{"success":true,"data":{"address_id":8,"consignee_name":"An","status":true}}`), nil
	})
	client := NewClient(WithBaseURL("http://api.test"), WithHTTPClient(&http.Client{Transport: rt}))

	created, err := client.CreateAddress(context.Background(), "tok", AddressInput{ConsigneeName: "An", HouseNum: "12", IsDefault: true})
	if err != nil {
		t.Fatalf("create address: %v", err)
	}
	if created == nil || created.AddressID.String() != "8" {
		t.Fatalf("unexpected address %+v", created)
	}
}

func TestCreateAddressWithoutRecord(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, `{"success":true,"message":"created"}`), nil
	})
	client := NewClient(WithHTTPClient(&http.Client{Transport: rt}))

	created, err := client.CreateAddress(context.Background(), "tok", AddressInput{ConsigneeName: "An"})
	if err != nil || created != nil {
		t.Fatalf("expected no record and no error, got %+v %v", created, err)
	}
}

func TestGetUserAndUpdateProfile(t *testing.T) {
	var update map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodGet && req.URL.Path == "/users/17":
			return jsonResponse(http.StatusOK, `{"success":true,"data":{"user_id":17,"username":"an","email":"an@example.com","full_name":"An Nguyen","customers":{"customer_id":5,"birthday":"1995-04-02T00:00:00.000Z","gender":"female"}}}`), nil
		case req.Method == http.MethodPut && req.URL.Path == "/users/profile":
			if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"success":true,"message":"updated"}`), nil
		}
		t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		return nil, nil
	})
	client := NewClient(WithBaseURL("http://api.test"), WithHTTPClient(&http.Client{Transport: rt}))
	ctx := context.Background()

	user, err := client.GetUser(ctx, "tok", "17")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.FullName != "An Nguyen" || user.Customers == nil || user.Customers.Gender != "female" {
		t.Fatalf("unexpected user %+v", user)
	}

	if err := client.UpdateProfile(ctx, "tok", ProfileUpdate{FullName: "An", Email: "an@example.com"}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if update["full_name"] != "An" || update["birthday"] != nil {
		t.Fatalf("unexpected update body %+v", update)
	}
	if _, ok := update["gender"]; !ok {
		t.Fatal("gender must be sent as null")
	}
}
