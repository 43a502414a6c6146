package simulation

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/umbralab/umbra/routing"
	"github.com/umbralab/umbra/sim"
)

var _ = Describe("Simulation", func() {
	var simulation *Simulation

	BeforeEach(func() {
		simulation = MakeBuilder().
			WithoutMonitoring().
			WithStopTime(100 * sim.Millisecond).
			Build()
	})

	AfterEach(func() {
		simulation.Terminate()

		os.Remove("umbra_sim_" + simulation.ID() + ".sqlite3")
	})

	It("should register a host", func() {
		h, err := simulation.AddHost("alpha", "10.0.0.1", 0, 0)

		Expect(err).ToNot(HaveOccurred())
		Expect(simulation.HostByName("alpha")).To(Equal(h))
		Expect(simulation.DNS().ResolveName("alpha")).ToNot(BeNil())
	})

	It("should reject duplicate host names", func() {
		_, err := simulation.AddHost("alpha", "10.0.0.1", 0, 0)
		Expect(err).ToNot(HaveOccurred())

		_, err = simulation.AddHost("alpha", "10.0.0.2", 0, 0)
		Expect(err).To(HaveOccurred())
	})

	It("should reject links between unknown hosts", func() {
		_, err := simulation.AddHost("alpha", "10.0.0.1", 0, 0)
		Expect(err).ToNot(HaveOccurred())

		err = simulation.AddLink("alpha", "beta", 10*time.Millisecond)
		Expect(err).To(HaveOccurred())
	})

	It("should run a two-host exchange to completion", func() {
		alpha, err := simulation.AddHost("alpha", "10.0.0.1", 0, 0)
		Expect(err).ToNot(HaveOccurred())

		beta, err := simulation.AddHost("beta", "10.0.0.2", 0, 0)
		Expect(err).ToNot(HaveOccurred())

		err = simulation.AddLink("alpha", "beta", 10*time.Millisecond)
		Expect(err).ToNot(HaveOccurred())

		var delivered int
		alpha.SetBootHandler(func(w *sim.Worker) {
			w.SendPacket(routing.NewPacket(
				"10.0.0.1", "10.0.0.2", []byte("hello")))
		})
		beta.SetPacketHandler(func(w *sim.Worker, p *routing.Packet) {
			delivered++
		})

		err = simulation.Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(delivered).To(Equal(1))
		Expect(simulation.Scheduler().CurrentTime()).
			To(BeNumerically(">=", 10*sim.Millisecond))
	})

	Context("Builder with custom output file", func() {
		var customSim *Simulation

		AfterEach(func() {
			if customSim != nil {
				customSim.Terminate()
				os.Remove("test_custom_output.sqlite3")
				customSim = nil
			}
		})

		It("should allow custom output file to be set", func() {
			builder := MakeBuilder().
				WithoutMonitoring().
				WithOutputFileName("test_custom_output")
			customSim = builder.Build()

			Expect(customSim).ToNot(BeNil())
			Expect(customSim.DataRecorder()).ToNot(BeNil())
		})
	})
})
