package tele_config

type Config struct { //nolint:maligned
	Enabled        bool   `hcl:"enable"`
	MqttBroker     string `hcl:"mqtt_broker"`
	MqttPassword   string `hcl:"mqtt_password"`
	TopicPrefix    string `hcl:"topic_prefix"`
	PersistPath    string `hcl:"persist_path"`
	StorePath      string `hcl:"store_path"`
	KeepaliveSec   int    `hcl:"keepalive_sec"`
	PingTimeoutSec int    `hcl:"ping_timeout_sec"`
	LogDebug       bool   `hcl:"log_debug"`

	// Set at runtime, not read from config file.
	DeviceSerial string `hcl:"-"`
	BuildVersion string `hcl:"-"`
}
