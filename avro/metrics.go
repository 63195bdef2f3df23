package avro

import (
	"github.com/prometheus/client_golang/prometheus"
)

type containerMetrics struct {
	blocksRead     prometheus.Counter
	recordsRead    prometheus.Counter
	compressedRead prometheus.Counter
	decodeFailures prometheus.Counter
}

func newContainerMetrics() *containerMetrics {
	return &containerMetrics{
		blocksRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avrobj_container_blocks_read_total",
			Help: "Total number of container file data blocks read",
		}),
		recordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avrobj_container_records_read_total",
			Help: "Total number of records decoded from container files",
		}),
		compressedRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avrobj_container_compressed_bytes_read_total",
			Help: "Total compressed bytes of block data read from container files",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avrobj_container_decode_failures_total",
			Help: "Total number of records that failed to decode",
		}),
	}
}

func (m *containerMetrics) register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.blocksRead,
		m.recordsRead,
		m.compressedRead,
		m.decodeFailures,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
