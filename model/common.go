package model

import "github.com/to404hanga/submission_controller/entity"

type CommonParam struct {
	Operator entity.Operator
}

type CommonParamInterface interface {
	SetOperator(op entity.Operator)
}

func (p *CommonParam) SetOperator(op entity.Operator) {
	p.Operator = op
}
