package gnocker

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus"
	"github.com/zerbitx/gnockdir/fixture"
	"github.com/zerbitx/gnockdir/resolver"
	"github.com/zerbitx/gnockdir/spec"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func write(fs billy.Filesystem, name, content string) {
	Expect(fs.MkdirAll(filepath.Dir(name), 0755)).To(Succeed())
	Expect(util.WriteFile(fs, name, []byte(content), 0644)).To(Succeed())
}

var _ = Describe("Gnocker", func() {
	var (
		fs  billy.Filesystem
		app *gnocker
	)

	do := func(req *http.Request) (*http.Response, string) {
		res, err := app.app.Test(req)
		Expect(err).ShouldNot(HaveOccurred())
		defer res.Body.Close()

		body, err := ioutil.ReadAll(res.Body)
		Expect(err).ShouldNot(HaveOccurred())

		return res, string(body)
	}

	BeforeEach(func() {
		logger := logrus.New()
		logger.SetOutput(GinkgoWriter)

		fs = memfs.New()
		write(fs, "/mock/api/user/info/ok/data.json", `{"name": "gnock"}`)
		write(fs, "/mock/api/user/info/ok/http.json", `{"status": 418, "header": {"X-GNOCK-TEST": "A+"}}`)
		write(fs, "/mock/api/list/byid/data?id=1.json", `{"id": 1}`)
		write(fs, "/mock/api/list/byid/data?id=2.json", `{"id": 2}`)
		write(fs, "/mock/api/list/all/data.json", `[1, 2]`)
		write(fs, "/mock/api/clock/now/data.js", ``)
		write(fs, "/mock/_set/empty/api/user/info/data.json", `{}`)
		write(fs, "/mock/proxy.json", `{"/legacy": "http://127.0.0.1:3000"}`)

		registry := fixture.Registry{}
		registry.Register("api/clock/now/data.js", func(q map[string]string) interface{} {
			return map[string]string{"tz": q["tz"]}
		})

		r := resolver.New(resolver.WithLogger(logger), resolver.WithRegistry(registry))
		app = New(func() spec.ResolvedMocks { return r.ResolveFS(fs, "/mock") }, WithLogger(logger))
	})

	Context("Nothing is configured for a path", func() {
		It("Responds with a 404", func() {
			res, _ := do(httptest.NewRequest(http.MethodGet, "/anything/at/all", nil))

			Expect(res.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("With a plain fixture", func() {
		It("Responds as configured", func() {
			res, body := do(httptest.NewRequest(http.MethodGet, "/api/user/info", nil))

			Expect(res.StatusCode).To(Equal(http.StatusTeapot))
			Expect(res.Header.Get("X-GNOCK-TEST")).To(Equal("A+"))
			Expect(res.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(body).To(MatchJSON(`{"name": "gnock"}`))
		})
	})

	Context("With condition fixtures", func() {
		It("Serves the variant matching the query", func() {
			res, body := do(httptest.NewRequest(http.MethodGet, "/api/list?id=2", nil))

			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"id": 2}`))
		})

		It("Falls back to the plain fixture when nothing matches", func() {
			_, body := do(httptest.NewRequest(http.MethodGet, "/api/list?id=3", nil))

			Expect(body).To(MatchJSON(`[1, 2]`))
		})
	})

	Context("With a dynamic payload", func() {
		It("Computes the body from the query", func() {
			_, body := do(httptest.NewRequest(http.MethodGet, "/api/clock?tz=UTC", nil))

			Expect(body).To(MatchJSON(`{"tz": "UTC"}`))
		})
	})

	Context("A mock set is requested", func() {
		It("Serves the set's fixture", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
			req.Header.Set(GnockerHeader, "empty")

			res, body := do(req)

			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{}`))
		})

		It("Rejects unknown sets", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
			req.Header.Set(GnockerHeader, "nope")

			res, _ := do(req)

			Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("Responds with a 404 for routes the set lacks", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/list", nil)
			req.Header.Set(GnockerHeader, "empty")

			res, _ := do(req)

			Expect(res.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("The config endpoints", func() {
		It("Lists namespaces and sets", func() {
			res, body := do(httptest.NewRequest(http.MethodGet, "/gnockconfig", nil))

			Expect(res.StatusCode).To(Equal(http.StatusOK))

			var s status
			Expect(json.Unmarshal([]byte(body), &s)).To(Succeed())
			Expect(s.Namespaces).To(Equal([]string{"api"}))
			Expect(s.Sets).To(Equal([]string{"empty"}))
			Expect(s.Version).To(Equal(app.store.Current().Version.String()))
		})

		It("Serves the proxy table", func() {
			_, body := do(httptest.NewRequest(http.MethodGet, "/gnockconfig/proxy", nil))

			Expect(body).To(MatchJSON(`{"/legacy": "http://127.0.0.1:3000"}`))
		})

		It("Picks up fixture changes on reload", func() {
			before := app.store.Current().Version
			write(fs, "/mock/api/user/new/fresh/data.json", `{"fresh": true}`)

			res, body := do(httptest.NewRequest(http.MethodPost, "/gnockconfig/reload", nil))
			Expect(res.StatusCode).To(Equal(http.StatusCreated))

			var reloaded map[string]string
			Expect(json.Unmarshal([]byte(body), &reloaded)).To(Succeed())
			Expect(reloaded["version"]).NotTo(Equal(before.String()))

			_, body = do(httptest.NewRequest(http.MethodGet, "/api/user/new", nil))
			Expect(body).To(MatchJSON(`{"fresh": true}`))
		})
	})
})

var _ = Describe("selectRecord", func() {
	plain := spec.FixtureRecord{Label: "plain"}
	matched := spec.FixtureRecord{Label: "matched"}
	group := spec.ConditionGroup{
		Label: "matched",
		List: []spec.ConditionCandidate{
			{MatchKey: "data?a=1&b=2", Params: map[string]string{"a": "1", "b": "2"}, Record: matched},
		},
	}
	entries := []spec.Entry{{Record: &plain}, {Group: &group}}

	It("Requires every condition parameter", func() {
		record, ok := selectRecord(entries, map[string]string{"a": "1"})

		Expect(ok).To(BeTrue())
		Expect(record.Label).To(Equal("plain"))
	})

	It("Prefers a matching condition over plain records", func() {
		record, _ := selectRecord(entries, map[string]string{"a": "1", "b": "2", "c": "3"})

		Expect(record.Label).To(Equal("matched"))
	})

	It("Finds nothing in an empty route", func() {
		_, ok := selectRecord(nil, nil)

		Expect(ok).To(BeFalse())
	})
})
