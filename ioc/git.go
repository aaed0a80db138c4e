package ioc

import (
	"log"

	"github.com/to404hanga/submission_controller/pkg/gitclient"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const deployKeyComment = "submission_controller"

// InitGitClient 配置了 known_hosts 时校验 git 服务端公钥
func InitGitClient() gitclient.Client {
	cfg := pipelineConfig()
	var callback ssh.HostKeyCallback
	if cfg.GitKnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.GitKnownHostsFile)
		if err != nil {
			log.Panicf("load known_hosts failed: %v", err)
		}
		callback = cb
	}
	return gitclient.NewGoGitClient(callback, deployKeyComment)
}
