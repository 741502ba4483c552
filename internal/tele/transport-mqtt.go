package tele

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ascentio/climbwatch/helpers"
	"github.com/ascentio/climbwatch/log2"
	tele_api "github.com/ascentio/climbwatch/tele"
	tele_config "github.com/ascentio/climbwatch/tele/config"
)

const defaultTopicPrefix = "climbing"

type transportMqtt struct {
	log       *log2.Log
	onRequest func([]byte) bool
	m         mqtt.Client
	mopt      *mqtt.ClientOptions

	topicBase     string // climbing/<serial>, telemetry goes here
	topicStatus   string
	topicTelegram string
	topicRequest  string
}

func (tm *transportMqtt) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, onRequest RequestCallback) error {
	tm.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log

	serial := teleConfig.DeviceSerial
	mqttClientId := fmt.Sprintf("cw-%s", serial)
	credFun := func() (string, string) {
		return mqttClientId, teleConfig.MqttPassword
	}

	tm.onRequest = func(payload []byte) bool {
		return onRequest(ctx, payload)
	}
	prefix := teleConfig.TopicPrefix
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	tm.topicBase = fmt.Sprintf("%s/%s", prefix, serial)
	tm.topicStatus = fmt.Sprintf("%s/status", tm.topicBase)
	tm.topicTelegram = fmt.Sprintf("%s/telegram", tm.topicBase)
	tm.topicRequest = fmt.Sprintf("%s/request", tm.topicBase)
	keepAlive := helpers.IntSecondDefault(teleConfig.KeepaliveSec, 60)
	pingTimeout := helpers.IntSecondDefault(teleConfig.PingTimeoutSec, 30)
	retryInterval := helpers.IntSecondDefault(teleConfig.KeepaliveSec/2, 30)
	storePath := teleConfig.StorePath
	if storePath == "" {
		storePath = "/var/lib/climbwatch/mqtt-store"
	}

	willPayload, _ := json.Marshal(tele_api.StatusReport{Status: tele_api.StatusInactive})
	tm.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetBinaryWill(tm.topicStatus, willPayload, 1, true).
		SetCleanSession(false).
		SetClientID(mqttClientId).
		SetCredentialsProvider(credFun).
		SetDefaultPublishHandler(tm.messageHandler).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetOrderMatters(false).
		SetResumeSubs(true).
		SetStore(mqtt.NewFileStore(storePath)).
		SetConnectRetryInterval(retryInterval).
		SetOnConnectHandler(tm.onConnectHandler).
		SetConnectionLostHandler(tm.connectLostHandler).
		SetConnectRetry(true)
	tm.m = mqtt.NewClient(tm.mopt)
	sConnToken := tm.m.Connect()
	if sConnToken.Error() != nil {
		tm.log.Errorf("mqtt connect token err=%v", sConnToken.Error())
	}
	return nil
}

func (tm *transportMqtt) CloseTele() {
	tm.log.Infof("mqtt unsubscribe")
	if token := tm.m.Unsubscribe(tm.topicRequest); token.Wait() && token.Error() != nil {
		tm.log.Infof("mqtt unsubscribe error")
	}
}

func (tm *transportMqtt) SendTelemetry(payload []byte) bool {
	tm.m.Publish(tm.topicBase, 1, false, payload)
	return true
}

func (tm *transportMqtt) SendTelegram(payload []byte) bool {
	tm.log.Infof("mqtt publish telegram response topic=%s", tm.topicTelegram)
	tm.m.Publish(tm.topicTelegram, 1, false, payload)
	return true
}

func (tm *transportMqtt) messageHandler(c mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	tm.log.Infof("mqtt income message (%x)", payload)
	tm.onRequest(payload)
}

func (tm *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	tm.log.Infof("mqtt disconnect")
}

func (tm *transportMqtt) onConnectHandler(c mqtt.Client) {
	tm.log.Infof("mqtt connect")
	if token := c.Subscribe(tm.topicRequest, 1, nil); token.Wait() && token.Error() != nil {
		tm.log.Infof("mqtt subscribe error")
		return
	}
	// announce presence; retained so the collector sees it on (re)start
	payload, _ := json.Marshal(tele_api.StatusReport{Status: tele_api.StatusActive})
	c.Publish(tm.topicStatus, 1, true, payload)
}
