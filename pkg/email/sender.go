package email

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/breezechat/breeze/pkg/log"
)

// Config selects the SMTP relay and the account sending on our behalf.
type Config struct {
	From     string
	SMTPHost string
	SMTPPort int
	Username string
	Password string
}

// Sender delivers transactional mail over SMTP.
type Sender struct {
	from   string
	dialer *gomail.Dialer
}

// NewSender builds a Sender for the given relay.
func NewSender(cfg Config) *Sender {
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 25
	}
	return &Sender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
	}
}

const verifyCodeSubject = "BreezeChat验证码"

const verifyCodeBody = `<!DOCTYPE html>
<html lang="zh">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>验证码邮件</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            background-color: #f4f4f4;
            text-align: center;
            padding: 50px;
        }
        .email-container {
            background: #fff;
            padding: 20px;
            border-radius: 10px;
            box-shadow: 0px 0px 10px 0px rgba(0, 0, 0, 0.1);
            display: inline-block;
            text-align: left;
        }
        .verification-code {
            font-size: 24px;
            font-weight: bold;
            color: #d9534f;
            margin: 20px 0;
        }
        .footer {
            margin-top: 20px;
            font-size: 12px;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="email-container">
        <h2>您的验证码</h2>
        <p>您好，</p>
        <p>感谢您的注册/登录请求。您的一次性验证码如下：</p>
        <p class="verification-code">%s</p>
        <p>请在10分钟内使用此验证码完成验证。如非本人操作，请忽略此邮件。</p>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复。</p>
            <p>如果您有任何问题，请联系我们的客服支持。</p>
        </div>
    </div>
</body>
</html>`

// verifyCodeMessage assembles the verification-code mail.
func verifyCodeMessage(from, to, code string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", verifyCodeSubject)
	m.SetBody("text/html", fmt.Sprintf(verifyCodeBody, code))
	return m
}

// SendVerifyCode mails a one-time verification code to the given address.
func (s *Sender) SendVerifyCode(to, code string) error {
	if err := s.dialer.DialAndSend(verifyCodeMessage(s.from, to, code)); err != nil {
		log.Errorf(fmt.Sprintf("Failed to send verification code to %s", to), err)
		return err
	}
	return nil
}
