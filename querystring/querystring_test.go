package querystring

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extract", func() {
	It("Returns every pair after the question mark", func() {
		Expect(Extract("data?a=b&c=d")).To(Equal(map[string]string{"a": "b", "c": "d"}))
	})

	It("Is empty without a question mark", func() {
		Expect(Extract("data")).To(BeEmpty())
	})

	It("Is empty with nothing after the question mark", func() {
		Expect(Extract("/api/user?")).To(BeEmpty())
	})

	It("Unescapes values but not keys", func() {
		Expect(Extract("/api?na%20me=a%20b")).To(Equal(map[string]string{"na%20me": "a b"}))
	})

	It("Keeps values that fail to unescape", func() {
		Expect(Extract("data?q=100%")).To(HaveKeyWithValue("q", "100%"))
	})

	It("Ignores anything after a second question mark", func() {
		Expect(Extract("a?x=1?y=2")).To(Equal(map[string]string{"x": "1"}))
	})

	It("Treats a key without a value as empty", func() {
		Expect(Extract("a?flag")).To(HaveKeyWithValue("flag", ""))
	})
})
