package encode

import (
	"bytes"

	"github.com/zerbitx/gnockdir/spec"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Write", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("Indents json with a single space", func() {
		Expect(Write(FormatJSON, map[string]int{"a": 1}, buf)).To(Succeed())
		Expect(buf.String()).To(Equal("{\n \"a\": 1\n}\n"))
	})

	It("Writes an empty resolution as an empty yaml mapping", func() {
		Expect(Write(FormatYAML, spec.ResolvedMocks{}, buf)).To(Succeed())
		Expect(buf.String()).To(Equal("{}\n"))
	})

	It("Writes records with their labels as yaml", func() {
		record := spec.FixtureRecord{HTTPOptions: spec.DefaultHTTPOptions(), Label: "ok"}
		mocks := spec.ResolvedMocks{
			Data:  spec.NamespaceTable{"api": spec.RouteTable{"user": {{Record: &record}}}},
			Proxy: spec.ProxyTable{},
			Sets:  spec.MockSetTable{},
		}

		Expect(Write(FormatYAML, mocks, buf)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("label: ok"))
		Expect(buf.String()).To(ContainSubstring("status: 200"))
	})

	It("Rejects unknown formats", func() {
		Expect(Write(Format("toml"), nil, buf)).NotTo(Succeed())
	})
})
