package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/negicon/pkg/event"
	"github.com/robotalks/negicon/pkg/upstream/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/negicon/"
	id      = "+"
)

func init() {
	if val := os.Getenv("NEGICON_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&id, "id", id, "Controller ID, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	c, err := mqtt.NewClientFromURL(mqttURL, "")
	if err != nil {
		log.Fatalln(err)
	}
	c.Sub(id+"/#", func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.TopicMeta):
			var msg mqtt.MetaMsg
			if err := proto.Unmarshal(payload, &msg); err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, msg.String())
		case strings.HasSuffix(topic, "/"+mqtt.TopicTelemetry):
			var msg mqtt.EventMsg
			if err := proto.Unmarshal(payload, &msg); err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, msg.Event())
		case strings.HasSuffix(topic, "/"+mqtt.TopicEvent), strings.HasSuffix(topic, "/"+mqtt.TopicCommand):
			var r event.Report
			if len(payload) != len(r) {
				log.Printf("%s: bad report size %d", topic, len(payload))
				return
			}
			copy(r[:], payload)
			ev, err := event.Decode(r)
			if err != nil {
				log.Printf("%s: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, ev)
		}
	})
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
