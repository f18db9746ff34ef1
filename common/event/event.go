package event

import (
	"fmt"
	messagebus "github.com/vardius/message-bus"
	"reflect"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/common/logger"
)

type Broker struct {
	bus    messagebus.MessageBus
	runner *Runner

	api.Sender
}

func InitBus(queueSize int, runner *Runner) *Broker {
	return &Broker{
		bus:    messagebus.New(queueSize),
		runner: runner,
	}
}

func (s *Broker) Runner() *Runner {
	return s.runner
}

func (s *Broker) Subscribe(topic api.Topic, fn interface{}) {
	err := s.bus.Subscribe(string(topic), fn)
	if err != nil {
		logger.Error.Panic("Could not subscribe")
	}
}

// ConnectToProcessing delivers the messages of the topic to callback on the
// processing thread instead of the bus goroutine.
func (s *Broker) ConnectToProcessing(topic api.Topic, callback interface{}) {
	cb := func(params ...interface{}) {
		s.runner.Post(func() {
			args := make([]reflect.Value, 0, len(params))
			for _, param := range params {
				args = append(args, reflect.ValueOf(param))
			}
			logger.Trace.Printf("Calling topic '%s' with %d arguments", topic, len(args))
			reflect.ValueOf(callback).Call(args)
		})
	}
	err := s.bus.Subscribe(string(topic), cb)
	if err != nil {
		logger.Error.Panic("Could not subscribe")
	}
}

func (s *Broker) SendToTopic(topic api.Topic) {
	logger.Trace.Printf("Sending to '%s'", topic)
	s.bus.Publish(string(topic))
}

func (s *Broker) SendCommandToTopic(topic api.Topic, command apitype.Command) {
	logger.Trace.Printf("Sending command to '%s'", topic)
	s.bus.Publish(string(topic), command)
}

func (s *Broker) SendError(message string, err error) {
	formattedMessage := ""
	if err != nil {
		formattedMessage = fmt.Sprintf("%s\n%s", message, err.Error())
	} else {
		formattedMessage = message
	}
	logger.Error.Printf("Error: %s", formattedMessage)
	s.SendCommandToTopic(api.ShowError, &api.ErrorCommand{Message: formattedMessage})
}
