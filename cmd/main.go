package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"aviator_backend/internal/auth"
	"aviator_backend/internal/bet"
	"aviator_backend/internal/config"
	"aviator_backend/internal/fairness"
	"aviator_backend/internal/payment"
	"aviator_backend/internal/round"
	"aviator_backend/internal/settings"
	"aviator_backend/internal/wallet"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type authRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type betRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	AutoCashout *float64        `json:"auto_cashout"`
}

type cashoutRequest struct {
	BetID uint `json:"bet_id"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func main() {
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DBConnStr), &gorm.Config{})
	if err != nil {
		log.Fatalln(err)
	}

	err = db.AutoMigrate(
		&auth.User{},
		&wallet.Wallet{},
		&wallet.Transaction{},
		&settings.Settings{},
		&round.Round{},
		&bet.Bet{},
	)
	if err != nil {
		log.Fatalln(err)
	}

	settingsRepo := settings.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	walletService := wallet.NewService(walletRepo, settingsRepo)

	roundRepo := round.NewRepository(db)
	betRepo := bet.NewRepository(db)
	betService := bet.NewService(db, betRepo, roundRepo, walletService, cfg.Game.MaxBet)

	var gen fairness.Generator
	if cfg.Game.FairMode == "bands" {
		gen = fairness.NewBandGenerator()
	} else {
		gen = fairness.NewHMACGenerator(cfg.Game.HouseEdge)
	}

	scheduler := round.NewScheduler(roundRepo, betService, gen, cfg.Game)
	betService.SetMultiplierSource(scheduler)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authRepo := auth.NewRepository(db)
	authService := auth.NewService(authRepo, walletService, tokens, cfg.AdminUser, cfg.AdminPassword)

	gateway := payment.NewMockGateway()

	ctx := context.Background()
	if err := scheduler.Recover(ctx); err != nil {
		log.Fatalln("round recovery failed:", err)
	}
	go scheduler.Run(ctx)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "Backend running"})
	})

	r.GET("/aviator/round", func(c *gin.Context) {
		cur, err := roundRepo.Current(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if cur == nil {
			c.JSON(http.StatusOK, gin.H{"round": nil})
			return
		}
		// The crash point stays hidden while the round is live; the
		// commitment hash is what players get up front.
		c.JSON(http.StatusOK, gin.H{
			"round_id":         cur.ID,
			"crash_point":      nil,
			"status":           cur.Status,
			"betting_close_at": cur.BettingCloseAt,
			"server_hash":      cur.ServerHash,
		})
	})

	r.GET("/aviator/recent", func(c *gin.Context) {
		limit := 20
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		rounds, err := roundRepo.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"recent_rounds": rounds})
	})

	r.POST("/aviator/bet", authService.RequireUser(), func(c *gin.Context) {
		var req betRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		betID, err := betService.PlaceBet(c.Request.Context(), auth.UserID(c), req.Amount, req.AutoCashout)
		if err != nil {
			c.JSON(betStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "bet_id": betID})
	})

	r.POST("/aviator/cashout", authService.RequireUser(), func(c *gin.Context) {
		var req cashoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payout, multiplier, err := betService.Cashout(c.Request.Context(), auth.UserID(c), req.BetID)
		if err != nil {
			c.JSON(betStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"multiplier": multiplier,
			"payout":     payout,
		})
	})

	r.POST("/auth/register", func(c *gin.Context) {
		var req authRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := authService.Register(c.Request.Context(), req.Phone, req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User registered successfully"})
	})

	r.POST("/auth/login", func(c *gin.Context) {
		var req authRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		token, userID, err := authService.Login(c.Request.Context(), req.Phone, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"access_token": token,
			"token_type":   "bearer",
			"user":         gin.H{"id": userID, "phone_number": req.Phone},
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		var req adminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		token, err := authService.AdminLogin(req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"access_token": token,
			"token_type":   "bearer",
		})
	})

	r.GET("/admin/settings", authService.RequireAdmin(), func(c *gin.Context) {
		st, err := settingsRepo.Get(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"min_deposit":      st.MinDeposit,
			"min_withdraw":     st.MinWithdraw,
			"deposit_enabled":  st.DepositEnabled,
			"withdraw_enabled": st.WithdrawEnabled,
		})
	})

	r.PUT("/admin/settings", authService.RequireAdmin(), func(c *gin.Context) {
		var req settings.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := settingsRepo.Update(c.Request.Context(), req); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Settings updated"})
	})

	r.GET("/wallet/balance", authService.RequireUser(), func(c *gin.Context) {
		w, err := walletService.Balance(c.Request.Context(), auth.UserID(c))
		if err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": w.Balance})
	})

	r.POST("/wallet/deposit/stk", authService.RequireUser(), func(c *gin.Context) {
		var req amountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID := auth.UserID(c)
		reference := fmt.Sprintf("stk_%d_%s", userID, req.Amount.StringFixed(0))
		if _, err := walletService.InitiateDeposit(c.Request.Context(), userID, req.Amount, reference); err != nil {
			c.JSON(walletStatus(err), gin.H{"error": err.Error()})
			return
		}

		resp, err := gateway.STKPush(c.Request.Context(), c.GetString("phone"), req.Amount, reference)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "mpesa": resp})
	})

	r.POST("/wallet/withdraw/mpesa", authService.RequireUser(), func(c *gin.Context) {
		var req amountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID := auth.UserID(c)
		if _, err := walletService.Debit(c.Request.Context(), userID, req.Amount, wallet.TypeWithdraw, "mpesa_withdraw"); err != nil {
			c.JSON(walletStatus(err), gin.H{"error": err.Error()})
			return
		}

		resp, err := gateway.B2CWithdraw(c.Request.Context(), c.GetString("phone"), req.Amount)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "mpesa": resp})
	})

	// The gateway retries on anything but success, so this endpoint always
	// acks; reconciliation failures are logged for operator follow-up.
	r.POST("/mpesa/stk/callback", func(c *gin.Context) {
		ack := gin.H{"ResultCode": 0}

		var cb payment.STKCallback
		if err := c.ShouldBindJSON(&cb); err != nil {
			log.Printf("stk callback: malformed payload: %v", err)
			c.JSON(http.StatusOK, ack)
			return
		}
		if cb.Body.StkCallback.ResultCode != 0 {
			c.JSON(http.StatusOK, ack)
			return
		}

		amount, reference, ok := cb.Metadata()
		if !ok {
			log.Printf("stk callback: missing amount or reference")
			c.JSON(http.StatusOK, ack)
			return
		}

		credited, err := walletService.ConfirmDeposit(c.Request.Context(), reference, amount)
		if err != nil {
			log.Printf("stk callback: confirm %s failed: %v", reference, err)
		} else if !credited {
			log.Printf("stk callback: %s already confirmed, skipping", reference)
		}
		c.JSON(http.StatusOK, ack)
	})

	fmt.Println("Server started on", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}

func betStatus(err error) int {
	switch {
	case errors.Is(err, bet.ErrInvalidAmount),
		errors.Is(err, bet.ErrAmountTooLarge),
		errors.Is(err, bet.ErrNoActiveRound),
		errors.Is(err, bet.ErrBettingClosed),
		errors.Is(err, bet.ErrRoundNotRunning),
		errors.Is(err, bet.ErrAlreadySettled):
		return http.StatusBadRequest
	case errors.Is(err, bet.ErrBetNotFound):
		return http.StatusNotFound
	default:
		return walletStatus(err)
	}
}

func walletStatus(err error) int {
	switch {
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, wallet.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrDepositsDisabled),
		errors.Is(err, wallet.ErrWithdrawalsDisabled),
		errors.Is(err, wallet.ErrBelowMinDeposit),
		errors.Is(err, wallet.ErrBelowMinWithdraw):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
