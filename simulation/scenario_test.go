package simulation

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scenario", func() {
	scenarioYAML := []byte(`
hosts:
  - name: alpha
    ip: 10.0.0.1
    bandwidth_up: 1000000
    bandwidth_down: 1000000
    app: ping
    peer: beta
  - name: beta
    ip: 10.0.0.2
links:
  - a: alpha
    b: beta
    latency: 10ms
`)

	It("should parse hosts and links", func() {
		sc, err := ParseScenario(scenarioYAML)

		Expect(err).ToNot(HaveOccurred())
		Expect(sc.Hosts).To(HaveLen(2))
		Expect(sc.Hosts[0].Name).To(Equal("alpha"))
		Expect(sc.Hosts[0].BandwidthUp).To(Equal(uint64(1000000)))
		Expect(sc.Hosts[0].App).To(Equal("ping"))
		Expect(sc.Links).To(HaveLen(1))
		Expect(time.Duration(sc.Links[0].Latency)).
			To(Equal(10 * time.Millisecond))
	})

	It("should reject a scenario without hosts", func() {
		_, err := ParseScenario([]byte(`links: []`))

		Expect(err).To(HaveOccurred())
	})

	It("should reject malformed durations", func() {
		_, err := ParseScenario([]byte(`
hosts:
  - name: alpha
    ip: 10.0.0.1
links:
  - a: alpha
    b: alpha
    latency: fast
`))

		Expect(err).To(HaveOccurred())
	})

	It("should apply hosts and links to a simulation", func() {
		sc, err := ParseScenario(scenarioYAML)
		Expect(err).ToNot(HaveOccurred())

		simulation := MakeBuilder().WithoutMonitoring().Build()
		defer func() {
			simulation.Terminate()
			os.Remove("umbra_sim_" + simulation.ID() + ".sqlite3")
		}()

		err = sc.Apply(simulation)

		Expect(err).ToNot(HaveOccurred())
		Expect(simulation.HostByName("alpha")).ToNot(BeNil())
		Expect(simulation.HostByName("beta")).ToNot(BeNil())
		Expect(simulation.Topology().Latency(
			simulation.DNS().ResolveName("alpha").ID,
			simulation.DNS().ResolveName("beta").ID)).
			To(Equal(10 * time.Millisecond))
	})
})
