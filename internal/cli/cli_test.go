package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestParseSets(t *testing.T) {
	got, err := ParseSets([]string{
		"n=42",
		"flag=true",
		"name=hello",
		`obj={"a":[1,2]}`,
		"quoted=\"7\"",
		"eq=a=b",
		"empty=",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"n":      float64(42),
		"flag":   true,
		"name":   "hello",
		"obj":    map[string]any{"a": []any{float64(1), float64(2)}},
		"quoted": "7",
		"eq":     "a=b",
		"empty":  "",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseSets_Invalid(t *testing.T) {
	for _, in := range []string{"novalue", "=1"} {
		if _, err := ParseSets([]string{in}); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}

	got, err := ParseSets(nil)
	if err != nil || got != nil {
		t.Errorf("no sets should give nil context, got %v (err %v)", got, err)
	}
}

// fakeAPI — минимальный сервер с конвертами ответов API.
type fakeAPI struct {
	lastBody  map[string]any
	lastQuery string
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/actions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]string{{"name": "echo"}, {"name": "http"}},
			"total": 2,
		})
	})
	mux.HandleFunc("POST /api/v1/actions/{name}/invoke", func(w http.ResponseWriter, r *http.Request) {
		f.lastBody = nil
		json.NewDecoder(r.Body).Decode(&f.lastBody)

		meta := map[string]any{"invocation_id": "inv-1", "action": r.PathValue("name"), "attempts": 2, "duration_ms": 15}
		switch {
		case r.PathValue("name") == "fail":
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error": map[string]any{"code": "ACTION_FAILED", "message": "boom", "meta": meta},
			})
		case f.lastBody["async"] == true:
			writeJSON(w, http.StatusAccepted, map[string]any{
				"data": map[string]string{"request_id": "req-1", "action": r.PathValue("name")},
			})
		default:
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{"result": f.lastBody["context"], "meta": meta},
			})
		}
	})
	mux.HandleFunc("GET /api/v1/invocations", func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": "inv-1", "action": "echo", "status": "SUCCEEDED", "attempts": 1}},
			"total": 1,
		})
	})
	mux.HandleFunc("GET /api/v1/invocations/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "inv-1" {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]string{"code": "NOT_FOUND", "message": "invocation not found"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"id": "inv-1", "action": "echo", "status": "FAILED", "error": "boom"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListActions(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	actions, err := NewClient(srv.URL).ListActions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 2 || actions[1].Name != "http" {
		t.Errorf("unexpected actions: %+v", actions)
	}
}

func TestClient_InvokeAction(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	retries := 0

	res, err := NewClient(srv.URL).InvokeAction(context.Background(), "echo", InvokeRequest{
		Context: map[string]any{"x": "y"},
		Retries: &retries,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Meta.Attempts != 2 || res.Meta.InvocationID != "inv-1" {
		t.Errorf("unexpected meta: %+v", res.Meta)
	}
	if got, ok := api.lastBody["retries"]; !ok || got != float64(0) {
		t.Errorf("explicit zero retries should be sent, body %v", api.lastBody)
	}
	if _, ok := api.lastBody["async"]; ok {
		t.Error("sync invoke should not send async")
	}
}

func TestClient_InvokeActionError(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	_, err := NewClient(srv.URL).InvokeAction(context.Background(), "fail", InvokeRequest{})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Code != "ACTION_FAILED" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if apiErr.Meta == nil || apiErr.Meta.Attempts != 2 {
		t.Errorf("meta should be decoded, got %+v", apiErr.Meta)
	}
	if apiErr.Error() != "ACTION_FAILED: boom" {
		t.Errorf("unexpected message: %s", apiErr.Error())
	}
}

func TestClient_EnqueueAction(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	accepted, err := NewClient(srv.URL).EnqueueAction(context.Background(), "echo", InvokeRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted.RequestID != "req-1" || accepted.Action != "echo" {
		t.Errorf("unexpected response: %+v", accepted)
	}
}

func TestClient_Invocations(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	c := NewClient(srv.URL)

	list, err := c.ListInvocations(context.Background(), ListInvocationsOpts{Action: "echo", Status: "FAILED", Limit: 5})
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected result: %v (err %v)", list, err)
	}
	if api.lastQuery != "action=echo&limit=5&status=FAILED" {
		t.Errorf("unexpected query: %s", api.lastQuery)
	}

	inv, err := c.GetInvocation(context.Background(), "inv-1")
	if err != nil || inv.Error != "boom" {
		t.Fatalf("unexpected invocation: %+v (err %v)", inv, err)
	}

	_, err = c.GetInvocation(context.Background(), "missing")
	if apiErr, ok := AsAPIError(err); !ok || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404 APIError, got %v", err)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListActions(context.Background())
	if err == nil || err.Error() != "API error: HTTP 502" {
		t.Errorf("expected HTTP status error, got %v", err)
	}
}

// runCmd выполняет команду CLI и возвращает stdout и stderr.
func runCmd(t *testing.T, baseURL string, jsonMode bool, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	clientFn := func() *Client { return NewClient(baseURL) }
	outputFn := func() *Output { return NewOutputTo(&stdout, &stderr, jsonMode) }

	root := &cobra.Command{Use: "caddy", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(NewActionCmd(clientFn, outputFn), NewInvocationCmd(clientFn, outputFn))
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestActionListCmd(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	stdout, _, err := runCmd(t, srv.URL, false, "action", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "NAME") || !strings.Contains(stdout, "http") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestActionInvokeCmd(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)

	stdout, stderr, err := runCmd(t, srv.URL, false,
		"action", "invoke", "echo", "--set", "n=1", "--set", "s=text", "--timeout", "500", "--retries", "3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if api.lastBody["timeout_ms"] != float64(500) || api.lastBody["retries"] != float64(3) {
		t.Errorf("flags not sent: %v", api.lastBody)
	}
	want := map[string]any{"n": float64(1), "s": "text"}
	if !reflect.DeepEqual(api.lastBody["context"], want) {
		t.Errorf("expected context %v, got %v", want, api.lastBody["context"])
	}
	if !strings.Contains(stdout, `"s": "text"`) {
		t.Errorf("result should be printed, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "echo succeeded: attempts=2") {
		t.Errorf("summary should go to stderr, got:\n%s", stderr)
	}
}

func TestActionInvokeCmd_NoRetriesFlag(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)

	if _, _, err := runCmd(t, srv.URL, false, "action", "invoke", "echo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := api.lastBody["retries"]; ok {
		t.Error("retries should be omitted so the server default applies")
	}
}

func TestActionInvokeCmd_Failure(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	_, stderr, err := runCmd(t, srv.URL, false, "action", "invoke", "fail")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr, "fail failed after 2 attempt(s)") {
		t.Errorf("attempts should be reported, got:\n%s", stderr)
	}
}

func TestActionInvokeCmd_Async(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)

	stdout, _, err := runCmd(t, srv.URL, true, "action", "invoke", "echo", "--async")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastBody["async"] != true {
		t.Errorf("async should be sent, body %v", api.lastBody)
	}

	var accepted AcceptedResponse
	if err := json.Unmarshal([]byte(stdout), &accepted); err != nil || accepted.RequestID != "req-1" {
		t.Errorf("unexpected JSON output %q (err %v)", stdout, err)
	}
}

func TestInvocationCmds(t *testing.T) {
	srv := (&fakeAPI{}).server(t)

	stdout, _, err := runCmd(t, srv.URL, false, "invocation", "list", "--status", "SUCCEEDED")
	if err != nil {
		t.Fatalf("list: unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "inv-1") || !strings.Contains(stdout, "SUCCEEDED") {
		t.Errorf("unexpected list output:\n%s", stdout)
	}

	stdout, _, err = runCmd(t, srv.URL, false, "inv", "get", "inv-1")
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "boom") {
		t.Errorf("unexpected get output:\n%s", stdout)
	}

	if _, _, err := runCmd(t, srv.URL, false, "invocation", "get"); err == nil {
		t.Error("get without ID should fail")
	}
}
