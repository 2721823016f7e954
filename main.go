package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	watermillhttp "github.com/ThreeDotsLabs/watermill-http/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"go.uber.org/zap"

	"github.com/mannion007/payouts/pkg/config"
	"github.com/mannion007/payouts/pkg/handler"
	"github.com/mannion007/payouts/pkg/logging"
	"github.com/mannion007/payouts/pkg/payout"
	"github.com/mannion007/payouts/pkg/processor"
	"github.com/mannion007/payouts/pkg/registry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	zapLogger, err := logging.New(settings.Debug)
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	logger := logging.NewWatermillAdapter(zapLogger)

	// the only place processors are registered, the registry is read only from here on
	processors, err := registry.New(map[payout.ProcessorType]payout.Processor{
		payout.PayPal: processor.NewPayPalProcessor(settings.PayPal.Endpoint, settings.PayPal.AccessToken),
		payout.Stripe: processor.NewStripeProcessor(settings.Stripe.APIKey),
		payout.Wise:   processor.NewWiseProcessor(settings.Wise.Endpoint, settings.Wise.APIToken, settings.Wise.ProfileID),
	})
	if err != nil {
		panic(err)
	}
	zapLogger.Info("processors registered", zap.Stringers("active", processors.ActiveTypes()))

	// configure router with middleware
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		panic(err)
	}

	router.AddPlugin(plugin.SignalsHandler) // gracefully shutdown the router

	amqpConfig := amqp.NewDurableQueueConfig(settings.AMQP.URI)

	// configure subscriber
	subscriber, err := amqp.NewSubscriber(amqpConfig, logger)
	if err != nil {
		panic(err)
	}
	defer subscriber.Close()

	// configure publisher
	publisher, err := amqp.NewPublisher(amqpConfig, logger)
	if err != nil {
		panic(err)
	}
	defer publisher.Close()

	poisonQueue, err := middleware.PoisonQueue(publisher, settings.AMQP.PoisonTopic)
	if err != nil {
		panic(err)
	}

	router.AddMiddleware(
		middleware.CorrelationID, // add and chain correlation id through messages for a given process
		poisonQueue,              // park messages which still fail once retries are exhausted
		middleware.Retry{
			MaxRetries:      settings.Router.MaxRetries,
			InitialInterval: settings.Router.InitialInterval,
			Multiplier:      settings.Router.Multiplier,
			Logger:          logger,
		}.Middleware, // retry with a backoff duration 1s, 2s, 4s, 8s...
		middleware.Recoverer, // recovers from panics in handlers, enabling the message to be retried
	)

	// payout requests arrive over http and are queued as commands
	httpSubscriber, err := watermillhttp.NewSubscriber(
		settings.HTTP.Addr,
		watermillhttp.SubscriberConfig{
			UnmarshalMessageFunc: handler.UnmarshalRequest(processors),
		},
		logger,
	)
	if err != nil {
		panic(err)
	}

	router.AddHandler(
		"queue_payout_requests",
		settings.HTTP.Path,
		httpSubscriber,
		settings.AMQP.CommandTopic,
		publisher,
		message.PassthroughHandler,
	)

	// [DEBUG] print all the events produced
	router.AddNoPublisherHandler(
		"print_outgoing_messages",
		settings.AMQP.EventTopic,
		subscriber,
		printMessages,
	)

	// add a handler for dispatching payouts to the router
	router.AddHandler(
		"dispatch_payout_handler",
		settings.AMQP.CommandTopic,
		subscriber,
		settings.AMQP.EventTopic,
		publisher,
		handler.NewDispatchPayout(processors, logger).Process,
	)

	go func() {
		<-router.Running()
		if err := httpSubscriber.StartHTTPServer(); err != nil {
			zapLogger.Error("http ingress stopped", zap.Error(err))
		}
	}()

	// Run the router
	if err := router.Run(context.Background()); err != nil {
		panic(err)
	}
}

// for debug only, output information about an outcome event
func printMessages(msg *message.Message) error {
	outcome, err := payout.UnmarshalOutcome(msg.Payload)
	if err != nil {
		return err
	}

	fmt.Printf(
		"\n> Received outcome: %s\n> payout %s via %s, success: %t %s\n> metadata: %v\n\n",
		msg.UUID, outcome.PayoutID, outcome.ProcessorType, outcome.Success, outcome.Reason, msg.Metadata,
	)
	return nil
}
