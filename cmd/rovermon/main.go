package main

import (
	"flag"
	"reflect"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/rover.go/pkg/remote"
	"github.com/robotalks/rover.go/pkg/remote/mqtt"
)

var topic = "#"

func init() {
	remote.SetupFlags()
	flag.StringVar(&topic, "topic", topic, "Topic pattern to monitor, relative to the prefix.")
}

func main() {
	// the log is the output.
	flag.Set("logtostderr", "true")
	flag.Parse()

	conf := remote.NewConfig()
	if conf.BrokerURL == "" {
		glog.Exitf("broker required: use -mqtt-url or %s", remote.EnvBrokerURL)
	}
	q, err := mqtt.NewQueueFromURL(conf.BrokerURL)
	if err != nil {
		glog.Exitln(err)
	}

	q.Sub(topic, mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
			glog.Infof("%s: %s", topic, string(payload))
			return
		}
		typed, err := remote.DecodeTyped(payload)
		if err != nil {
			glog.Warningf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			glog.Warningf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		glog.Infof("%s: #%d [%s] %s", topic, typed.Sequence,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			msg.(remote.SerializableMessage).Serializable().String())
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		glog.Exitln(token.Error())
	}
	<-(chan struct{})(nil)
}
