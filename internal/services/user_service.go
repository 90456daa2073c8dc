package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"emaginer/internal/errs"
	"emaginer/internal/models"
	"emaginer/internal/repositories"
	"emaginer/internal/utils"
)

// Метки потоков: попадают в логи вместе с correlation id.
const (
	labelRegister       = "users.register"
	labelVerify         = "users.verify-account"
	labelResendCode     = "users.resend-code"
	labelForgotPassword = "users.forgot-password"
	labelResetPassword  = "users.reset-password"
	labelLogin          = "auth.login"
)

// UserService — оркестратор жизненного цикла аккаунта. Все потоки, которые
// пишут в users и secret_codes, выполняются в одной транзакции: либо
// коммитятся оба изменения, либо ни одного. Письма отправляются строго
// после коммита и best-effort: их сбой логируется и не откатывает запись.
type UserService interface {
	Register(ctx context.Context, user *models.User, plainPassword string) (*models.User, string, error)
	Verify(ctx context.Context, userID int, clearCode string) (*models.User, error)
	ResendCode(ctx context.Context, userName string) error
	ForgotPassword(ctx context.Context, userName string) error
	ResetPassword(ctx context.Context, clearCode, newPassword string) error
	Login(ctx context.Context, userName, password string) (string, error)

	GetUserByID(ctx context.Context, id int) (*models.User, error)
	AdminUpdate(ctx context.Context, id int, status, role string) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type userService struct {
	db        *sql.DB
	userRepo  repositories.UserRepository
	codeRepo  repositories.SecretCodeRepository
	auth      AuthService
	tokens    TokenService
	emails    EmailService
	otpLength int
	baseURL   string
}

func NewUserService(
	db *sql.DB,
	userRepo repositories.UserRepository,
	codeRepo repositories.SecretCodeRepository,
	auth AuthService,
	tokens TokenService,
	emails EmailService,
	otpLength int,
	baseURL string,
) UserService {
	return &userService{
		db:        db,
		userRepo:  userRepo,
		codeRepo:  codeRepo,
		auth:      auth,
		tokens:    tokens,
		emails:    emails,
		otpLength: otpLength,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// inTx — fn выполняется внутри транзакции; любой возврат ошибки (включая
// отмену контекста до коммита) приводит к rollback.
func (s *userService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Printf("[tx][rollback] failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *userService) activationURL(userID int, clearCode string) string {
	return fmt.Sprintf("%s/users/verify-account/%d/%s", s.baseURL, userID, clearCode)
}

func (s *userService) resetURL(clearCode string) string {
	return fmt.Sprintf("%s/users/reset-password/%s", s.baseURL, clearCode)
}

// issueCode — инвариант "один действующий код на email": сначала purge,
// потом вставка нового дайджеста. Вызывается только внутри транзакции.
func (s *userService) issueCode(ctx context.Context, tx *sql.Tx, email string) (clear string, err error) {
	clear, digest, err := utils.NewOTP(s.otpLength)
	if err != nil {
		return "", fmt.Errorf("otp generate: %w", err)
	}
	codes := s.codeRepo.WithTx(tx)
	if _, err := codes.DeleteByEmail(ctx, email); err != nil {
		return "", err
	}
	if _, err := codes.Create(ctx, email, digest); err != nil {
		return "", err
	}
	return clear, nil
}

// sendEmail — только после коммита. Сбой доставки не влияет на результат.
func (s *userService) sendEmail(label, corr, to string, template EmailTemplate, params map[string]string) {
	if err := s.emails.SendEmail(to, template, params); err != nil {
		log.Printf("[%s][email] corr=%s send failed: %v", label, corr, err)
	}
}

func duplicateAccountError() *errs.AppError {
	ae := errs.Field("email", "The provided email is registered already.")
	ae.Err = errs.ErrDuplicateAccount
	return ae
}

func (s *userService) Register(ctx context.Context, user *models.User, plainPassword string) (*models.User, string, error) {
	corr := utils.NewCorrelationID()
	log.Printf("[%s] corr=%s enter user_name=%q", labelRegister, corr, user.UserName)

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Status = models.StatusNotInitialized

	hash, err := s.auth.HashPassword(plainPassword)
	if err != nil {
		return nil, "", errs.Wrap(err, labelRegister, corr)
	}
	user.PasswordHash = hash

	var clearCode string
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		users := s.userRepo.WithTx(tx)

		existing, err := users.GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicateAccountError()
		}

		if err := users.Create(ctx, user); err != nil {
			// уникальный индекс — последняя линия обороны против гонки
			// двух одновременных регистраций на один email/username
			if col, ok := repositories.UniqueViolationColumn(err); ok {
				if col == "" {
					col = "email"
				}
				ae := errs.Field(col, "value already exist")
				ae.Err = errs.ErrDuplicateAccount
				return ae
			}
			return err
		}

		clearCode, err = s.issueCode(ctx, tx, user.Email)
		return err
	})
	if err != nil {
		return nil, "", errs.Wrap(err, labelRegister, corr)
	}

	s.sendEmail(labelRegister, corr, user.Email, TemplateRegistration, map[string]string{
		"activationUrl": s.activationURL(user.ID, clearCode),
	})

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, "", errs.Wrap(err, labelRegister, corr)
	}
	log.Printf("[%s] corr=%s created user_id=%d", labelRegister, corr, user.ID)
	return user, token, nil
}

func (s *userService) Verify(ctx context.Context, userID int, clearCode string) (*models.User, error) {
	corr := utils.NewCorrelationID()
	log.Printf("[%s] corr=%s enter user_id=%d", labelVerify, corr, userID)

	var verified *models.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		users := s.userRepo.WithTx(tx)
		codes := s.codeRepo.WithTx(tx)

		// update-returning как write-lock: конкурентный verify того же
		// аккаунта сериализуется здесь и дальше падает на статусе или на
		// уже удалённом коде
		user, err := users.TouchForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errs.ErrNotFound
		}
		if user.Status != models.StatusNotInitialized {
			return errs.ErrInvalidState
		}

		code, err := codes.GetByEmailAndCode(ctx, user.Email, utils.HashOTP(clearCode))
		if err != nil {
			return err
		}
		if code == nil {
			return errs.ErrInvalidOrExpiredCode
		}

		if err := users.UpdateStatus(ctx, user.ID, models.StatusActive); err != nil {
			return err
		}
		// purge всех кодов адреса, не только совпавшего
		if _, err := codes.DeleteByEmail(ctx, user.Email); err != nil {
			return err
		}

		user.Status = models.StatusActive
		verified = user
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err, labelVerify, corr)
	}

	s.sendEmail(labelVerify, corr, verified.Email, TemplateActivation, nil)
	log.Printf("[%s] corr=%s activated user_id=%d", labelVerify, corr, verified.ID)
	return verified, nil
}

func (s *userService) ResendCode(ctx context.Context, userName string) error {
	corr := utils.NewCorrelationID()
	log.Printf("[%s] corr=%s enter user_name=%q", labelResendCode, corr, userName)

	var (
		email     string
		userID    int
		clearCode string
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// один фильтр на "нет пользователя" и "не тот статус" — причину
		// отказа наружу не различаем
		user, err := s.userRepo.WithTx(tx).GetByUserNameAndStatus(ctx, userName, models.StatusNotInitialized)
		if err != nil {
			return err
		}
		if user == nil {
			return errs.ErrNotFound
		}
		email = user.Email
		userID = user.ID

		clearCode, err = s.issueCode(ctx, tx, email)
		return err
	})
	if err != nil {
		return errs.Wrap(err, labelResendCode, corr)
	}

	s.sendEmail(labelResendCode, corr, email, TemplateResendCode, map[string]string{
		"activationUrl": s.activationURL(userID, clearCode),
	})
	log.Printf("[%s] corr=%s reissued user_id=%d", labelResendCode, corr, userID)
	return nil
}

// ForgotPassword — сознательно не требует статуса ACTIVE: сбросить пароль
// может любой существующий аккаунт.
func (s *userService) ForgotPassword(ctx context.Context, userName string) error {
	corr := utils.NewCorrelationID()
	log.Printf("[%s] corr=%s enter user_name=%q", labelForgotPassword, corr, userName)

	var (
		email     string
		clearCode string
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		user, err := s.userRepo.WithTx(tx).GetByUserName(ctx, userName)
		if err != nil {
			return err
		}
		if user == nil {
			return errs.ErrNotFound
		}
		email = user.Email

		clearCode, err = s.issueCode(ctx, tx, email)
		return err
	})
	if err != nil {
		return errs.Wrap(err, labelForgotPassword, corr)
	}

	s.sendEmail(labelForgotPassword, corr, email, TemplateForgotPassword, map[string]string{
		"resetUrl": s.resetURL(clearCode),
	})
	log.Printf("[%s] corr=%s reset code issued", labelForgotPassword, corr)
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, clearCode, newPassword string) error {
	corr := utils.NewCorrelationID()
	log.Printf("[%s] corr=%s enter", labelResetPassword, corr)

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return errs.Wrap(err, labelResetPassword, corr)
	}

	var email string
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		users := s.userRepo.WithTx(tx)
		codes := s.codeRepo.WithTx(tx)

		// FOR UPDATE: из двух конкурентных reset с одним кодом второй
		// дождётся первого и увидит, что кода больше нет
		code, err := codes.GetByCodeForUpdate(ctx, utils.HashOTP(clearCode))
		if err != nil {
			return err
		}
		if code == nil {
			return errs.ErrInvalidOrExpiredCode
		}

		user, err := users.GetByEmail(ctx, code.Email)
		if err != nil {
			return err
		}
		if user == nil {
			return errs.ErrNotFound
		}
		email = user.Email

		// UpdatePassword сдвигает password_changed_at: старые токены
		// перестают проходить auth-middleware
		if err := users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		_, err = codes.DeleteByEmail(ctx, email)
		return err
	})
	if err != nil {
		return errs.Wrap(err, labelResetPassword, corr)
	}

	s.sendEmail(labelResetPassword, corr, email, TemplateResetPassword, nil)
	log.Printf("[%s] corr=%s password reset done", labelResetPassword, corr)
	return nil
}

func (s *userService) Login(ctx context.Context, userName, password string) (string, error) {
	corr := utils.NewCorrelationID()
	log.Printf("[%s] corr=%s attempt user_name=%q", labelLogin, corr, userName)

	user, err := s.userRepo.GetByUserName(ctx, userName)
	if err != nil {
		return "", errs.Wrap(err, labelLogin, corr)
	}
	// единый ответ для "нет пользователя" и "не тот пароль"
	if user == nil || !s.auth.CheckPassword(password, user.PasswordHash) {
		return "", errs.Wrap(errs.ErrInvalidCredentials, labelLogin, corr)
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return "", errs.Wrap(err, labelLogin, corr)
	}
	log.Printf("[%s] corr=%s success user_id=%d", labelLogin, corr, user.ID)
	return token, nil
}

func (s *userService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) AdminUpdate(ctx context.Context, id int, status, role string) (*models.User, error) {
	user, err := s.userRepo.AdminUpdate(ctx, id, status, role)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.ErrNotFound
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int) error {
	err := s.userRepo.Delete(ctx, id)
	if err == sql.ErrNoRows {
		return errs.ErrNotFound
	}
	return err
}
