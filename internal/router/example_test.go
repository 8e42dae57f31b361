package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
)

func postUser(serverURL string, body string) models.User {
	resp, err := http.Post(serverURL+"/api/users", "application/json", strings.NewReader(body))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var usr models.User
	if err := json.NewDecoder(resp.Body).Decode(&usr); err != nil {
		panic(err)
	}

	return usr
}

func ExampleRouter_GetPing() {
	server, _ := setupTestRouter(nil)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ping")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_PostApiusers() {
	server, _ := setupTestRouter(nil)
	defer server.Close()

	body := []byte(`{"name":"Alice","headline":"Engineer","tags":["go"]}`)
	resp, err := http.Post(server.URL+"/api/users", "application/json", bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var usr models.User
	if err := json.NewDecoder(resp.Body).Decode(&usr); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Has store id:", usr.StoreID != "")
	fmt.Println("Name:", usr.Name)
	fmt.Println("Tags:", usr.Tags)

	// Output:
	// Status Code: 201
	// Has store id: true
	// Name: Alice
	// Tags: [go]
}

func ExampleRouter_GetApiuserstag() {
	server, _ := setupTestRouter(nil)
	defer server.Close()

	postUser(server.URL, `{"name":"Alice","tags":["Golang"]}`)
	postUser(server.URL, `{"name":"Bob","tags":["rust"]}`)

	resp, err := http.Get(server.URL + "/api/users/tag/GO")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var users []models.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	for _, usr := range users {
		fmt.Println(usr.Name)
	}

	// Output:
	// Status Code: 200
	// Alice
}

func ExampleRouter_GetApiuserssearch() {
	server, _ := setupTestRouter(nil)
	defer server.Close()

	postUser(server.URL, `{"name":"Alice","headline":"Backend"}`)
	postUser(server.URL, `{"name":"Bob","headline":"Works with alice"}`)
	postUser(server.URL, `{"name":"Carol"}`)

	resp, err := http.Get(server.URL + "/api/users/search?query=ALI")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var users []models.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		panic(err)
	}

	for _, usr := range users {
		fmt.Println(usr.Name)
	}

	// Output:
	// Alice
	// Bob
}

func ExampleRouter_GetApimostusedtags() {
	server, _ := setupTestRouter(nil)
	defer server.Close()

	postUser(server.URL, `{"name":"Alice","tags":["go","rust"]}`)
	postUser(server.URL, `{"name":"Bob","tags":["go"]}`)

	resp, err := http.Get(server.URL + "/api/mostUsedTags")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Print(string(body))

	// Output:
	// [{"tag":"go","count":2},{"tag":"rust","count":1}]
}
