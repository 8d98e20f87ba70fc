package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/giovaniif/vending/domain/bank"
	"github.com/giovaniif/vending/domain/item"
	"github.com/giovaniif/vending/domain/money"
	"github.com/giovaniif/vending/infra/config"
	"github.com/giovaniif/vending/infra/events"
	"github.com/giovaniif/vending/infra/gateways"
	"github.com/giovaniif/vending/infra/metrics"
	"github.com/giovaniif/vending/infra/repositories"
	"github.com/giovaniif/vending/infra/requestid"
	"github.com/giovaniif/vending/infra/tracing"
	"github.com/giovaniif/vending/protocols"
	"github.com/giovaniif/vending/use_cases/purchase"
	"github.com/giovaniif/vending/use_cases/stock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const defaultPurchaseTimeout = 30 * time.Second

type Dependencies struct {
	Currency money.Currency
	Stock    *stock.Stock
	Purchase *purchase.Purchase
	Bank     *bank.Bank
	Redis    *redis.Client
	Metrics  *metrics.HTTP
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

type AddItemRequest struct {
	Id    *int32 `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type PurchaseRequest struct {
	ItemId   int32  `json:"itemId"`
	Tendered string `json:"tendered"`
}

type itemResponse struct {
	Id      int32  `json:"id"`
	Name    string `json:"name"`
	Price   string `json:"price"`
	Display string `json:"display"`
}

type purchaseResponse struct {
	protocols.Receipt
	Replayed bool   `json:"replayed"`
	Message  string `json:"message"`
}

type bankResponse struct {
	Currency string      `json:"currency"`
	Total    string      `json:"total"`
	Coins    []bank.Coin `json:"coins"`
}

// StartServer wires the machine described by cfg and machine and serves it until ctx is done.
func StartServer(ctx context.Context, cfg *config.Config, machine config.Machine, log zerolog.Logger) error {
	if shutdown := tracing.Init(cfg.ServiceName); shutdown != nil {
		defer shutdown()
	}

	itemRepository, err := repositories.NewItemRepositoryMemoryWith(machine.Catalog)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	register, err := bank.New(machine.InitialTotal, machine.Coins)
	if err != nil {
		return fmt.Errorf("build register: %w", err)
	}

	var rdb *redis.Client
	var purchaseGateway protocols.PurchaseGateway
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("redis_addr", cfg.RedisAddr).Msg("redis ping failed, using in-memory idempotency")
			purchaseGateway = gateways.NewPurchaseGatewayMemory()
		} else {
			purchaseGateway = gateways.NewPurchaseGatewayRedis(rdb)
			log.Info().Msg("purchase idempotency: redis (TTL 24h)")
		}
	} else {
		purchaseGateway = gateways.NewPurchaseGatewayMemory()
		log.Info().Msg("purchase idempotency: in-memory (set REDIS_ADDR for redis)")
	}

	var publisher protocols.EventPublisher
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kafkaPublisher := events.NewPublisherKafka(brokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = events.NewPublisherRetrying(kafkaPublisher, gateways.NewSleeper())
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("purchase events: kafka")
	} else {
		publisher = events.NewPublisherMemory()
	}

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err := prometheus.Register(metrics.NewLedgerCollector(register)); err != nil {
		return fmt.Errorf("register ledger metrics: %w", err)
	}

	router := NewRouter(Dependencies{
		Currency: machine.Currency,
		Stock:    stock.NewStock(itemRepository, log),
		Purchase: purchase.NewPurchase(itemRepository, register, purchaseGateway, publisher, recorder, log),
		Bank:     register,
		Redis:    rdb,
		Metrics:  metrics.NewHTTP(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
		Logger:   log,
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: defaultPurchaseTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", server.Addr).Str("currency", machine.Currency.Symbol).Msg("vending machine is running")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	}
	return nil
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestid.Middleware(), tracing.Middleware(), deps.Metrics.Middleware(), accessLog(deps.Logger))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		redisCheck := "n/a"
		if deps.Redis != nil {
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				status = "degraded"
				redisCheck = "down"
			} else {
				redisCheck = "up"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "checks": gin.H{"redis": redisCheck}})
	})

	r.GET("/items", func(c *gin.Context) {
		items := deps.Stock.ListItems()
		response := make([]itemResponse, 0, len(items))
		for _, it := range items {
			response = append(response, toItemResponse(it, deps.Currency))
		}
		c.JSON(http.StatusOK, response)
	})

	r.POST("/items", func(c *gin.Context) {
		var request AddItemRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if request.Id == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}
		price, err := deps.Currency.Parse(request.Price)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		added, err := deps.Stock.AddStockItem(stock.Input{Id: *request.Id, Name: request.Name, Price: price})
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, toItemResponse(added, deps.Currency))
	})

	r.DELETE("/items/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
			return
		}
		if err := deps.Stock.RemoveStockItem(int32(id)); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Removed item with ID %d from stock.", id)})
	})

	r.POST("/purchase", func(c *gin.Context) {
		contextWithTimeout, cancel := context.WithTimeout(c.Request.Context(), defaultPurchaseTimeout)
		defer cancel()

		var request PurchaseRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tendered, err := deps.Currency.Parse(request.Tendered)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		ctx, span := tracing.Start(contextWithTimeout, "purchase.select_item", attribute.Int("item.id", int(request.ItemId)))
		defer span.End()
		output, err := deps.Purchase.SelectItem(ctx, purchase.Input{
			ItemId:         request.ItemId,
			Tendered:       tendered,
			IdempotencyKey: c.GetHeader("Idempotency-Key"),
		})
		if err != nil {
			span.RecordError(err)
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, purchaseResponse{
			Receipt:  output.Receipt,
			Replayed: output.Replayed,
			Message:  "Payment successful. Change: " + deps.Currency.Format(output.Receipt.Change),
		})
	})

	r.GET("/bank", func(c *gin.Context) {
		c.JSON(http.StatusOK, bankResponse{
			Currency: deps.Currency.Symbol,
			Total:    deps.Bank.Total().StringFixed(2),
			Coins:    deps.Bank.Ledger(),
		})
	})

	return r
}

func toItemResponse(it item.Item, currency money.Currency) itemResponse {
	return itemResponse{
		Id:      it.Id,
		Name:    it.Name,
		Price:   it.Price.StringFixed(2),
		Display: it.Display(currency),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, item.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, purchase.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, item.ErrDuplicateId), errors.Is(err, purchase.ErrPurchaseInProgress):
		return http.StatusConflict
	case errors.Is(err, money.ErrInvalidAmount), errors.Is(err, item.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", requestid.FromContext(c.Request.Context())).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
