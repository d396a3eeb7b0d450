// Command powerscoped is the wiring layer: it opens a transport, builds a
// sensor registry from a config file (or a single simulated sensor if none
// is given), binds everything to a core, optionally mirrors STREAM samples
// to Redis and bridges a Redis command list back into the core, and runs
// the tick loop until SIGINT/SIGTERM.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brahimab8/powerscope-core/pkg/config"
	"github.com/brahimab8/powerscope-core/pkg/core"
	"github.com/brahimab8/powerscope-core/pkg/daemon"
	"github.com/brahimab8/powerscope-core/pkg/redis"
	"github.com/brahimab8/powerscope-core/pkg/sanity"
	"github.com/brahimab8/powerscope-core/pkg/sensors/simulated"
	"github.com/brahimab8/powerscope-core/pkg/telemetry"
	"github.com/brahimab8/powerscope-core/pkg/transport/serialport"
)

var (
	serialDevice = flag.String("serial", "/dev/ttyUSB0", "Serial/USB-CDC device path")
	baudRate     = flag.Int("baud", 115200, "Serial baud rate")
	registryPath = flag.String("registry", "", "Path to a CBOR sensor registry file (omit for a single simulated sensor)")

	redisAddr = flag.String("redis-addr", "", "Redis server address (omit to disable telemetry)")
	redisPass = flag.String("redis-pass", "", "Redis password")
	redisDB   = flag.Int("redis-db", 0, "Redis database number")
	cmdListKey = flag.String("redis-cmd-list", "powerscope:commands", "Redis list key polled for inbound CMD frames")

	tickInterval = flag.Duration("tick", 2*time.Millisecond, "Tick loop interval")
	minPeriodMs  = flag.Uint("min-period-ms", 1, "Minimum allowed SET_PERIOD value")
	maxPeriodMs  = flag.Uint("max-period-ms", 10000, "Maximum allowed SET_PERIOD value")
	buildID      = flag.Uint("build-id", 0, "Build identifier surfaced by GET_VERSION")

	rxRingSize     = flag.Int("rx-ring-bytes", 1024, "RX ring buffer size in bytes (power of two)")
	streamRingSize = flag.Int("stream-ring-bytes", 4096, "TX stream ring buffer size in bytes (power of two)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting powerscope core daemon")
	log.Printf("Serial device: %s", *serialDevice)
	log.Printf("Baud rate: %d", *baudRate)

	specs := defaultRegistry()
	if *registryPath != "" {
		cfg, err := config.Load(*registryPath)
		if err != nil {
			log.Fatalf("Failed to load sensor registry %s: %v", *registryPath, err)
		}
		specs = cfg.Sensors
	}

	adapters, buses, err := buildAdapters(specs)
	if err != nil {
		log.Fatalf("Failed to build sensor adapters: %v", err)
	}
	defer func() {
		for _, b := range buses {
			b.Close()
		}
	}()

	port, err := serialport.Open(serialport.Config{Device: *serialDevice, BaudRate: *baudRate})
	if err != nil {
		log.Fatalf("Failed to open transport %s: %v", *serialDevice, err)
	}
	defer port.Close()
	log.Printf("Transport open on %s", *serialDevice)

	if err := sanity.CheckDeployment(*rxRingSize, *streamRingSize, port.BestChunk(), uint16(*minPeriodMs)); err != nil {
		log.Fatalf("Sizing check failed: %v", err)
	}

	var redisClient *redis.Client
	if *redisAddr != "" {
		redisClient, err = redis.New(*redisAddr, *redisPass, *redisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Printf("Connected to Redis at %s", *redisAddr)
	}

	sink := telemetry.NewSink(port, sampleWriterOrNil(redisClient))

	clock := func() uint32 { return uint32(time.Now().UnixMilli()) }
	c := core.New(make([]byte, *rxRingSize), make([]byte, *streamRingSize), sink, clock, core.Config{
		MinPeriodMs:      uint16(*minPeriodMs),
		MaxPeriodMs:      uint16(*maxPeriodMs),
		BuildID:          uint32(*buildID),
		StreamMaxPayload: 0,
	})
	for i, a := range adapters {
		period := uint16(500)
		if i < len(specs) && specs[i].DefaultPeriodMs != 0 {
			period = specs[i].DefaultPeriodMs
		}
		s := c.RegisterSensor(a, period)
		log.Printf("Registered sensor runtime_id=%d type_id=0x%02x period=%dms", s.RuntimeID, a.TypeID(), s.PeriodMs)
	}

	var bridge *telemetry.CommandBridge
	if redisClient != nil {
		bridge = telemetry.NewCommandBridge(redisClient, *cmdListKey, c.OnRX, clock)
		log.Printf("Command bridge watching Redis list %s", *cmdListKey)
	}

	d := daemon.New(c, *tickInterval, bridgeOrNil(bridge))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("Shutting down...")
		d.Stop()
	}()

	d.Run()
}

// defaultRegistry is used when -registry is omitted: one simulated sensor,
// enough to demonstrate the whole pipeline without any hardware attached.
func defaultRegistry() []config.SensorSpec {
	return []config.SensorSpec{
		{TypeID: simulated.TypeID, DefaultPeriodMs: 500, Kind: "simulated"},
	}
}

func sampleWriterOrNil(c *redis.Client) telemetry.SampleWriter {
	if c == nil {
		return nil
	}
	return c
}

func bridgeOrNil(b *telemetry.CommandBridge) daemon.Bridge {
	if b == nil {
		return nil
	}
	return b
}
